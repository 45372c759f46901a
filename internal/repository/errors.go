package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("repository: not found")
	// ErrSubdomainTaken is returned when a tenant subdomain is already in use.
	ErrSubdomainTaken = errors.New("repository: subdomain taken")
	// ErrEmailTaken is returned when a user email is already registered.
	ErrEmailTaken = errors.New("repository: email taken")
	// ErrNoTenant is returned by listings that only make sense inside a tenant.
	ErrNoTenant = errors.New("repository: no tenant in context")
)
