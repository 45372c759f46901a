package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubdomain(t *testing.T) {
	assert.Equal(t, "ana-lopez", Subdomain("Ana Lopez"))
	assert.Equal(t, "hello-world", Subdomain("--Hello__World--"))
	assert.Equal(t, "ana-l-pez", Subdomain("Ana López"))
	assert.Equal(t, "", Subdomain("!!!"))

	long := Subdomain(strings.Repeat("a", 70))
	assert.Len(t, long, 63)
}

func TestWithSuffixStaysWithinLabelLimit(t *testing.T) {
	got := withSuffix(strings.Repeat("a", 63), "abc123")
	assert.Len(t, got, 63)
	assert.True(t, strings.HasSuffix(got, "-abc123"))
	assert.Equal(t, "abc123", withSuffix("", "abc123"))
}

func TestValidSubdomain(t *testing.T) {
	assert.True(t, ValidSubdomain("test-company"))
	assert.False(t, ValidSubdomain("TestCompany"))
	assert.False(t, ValidSubdomain("test company"))
	assert.False(t, ValidSubdomain("te"))
}

func TestSubdomainFromHost(t *testing.T) {
	const base = "crm.example.com"
	assert.Equal(t, "acme", SubdomainFromHost("acme.crm.example.com", base))
	assert.Equal(t, "acme", SubdomainFromHost("ACME.crm.example.com:8443", base))
	assert.Equal(t, "", SubdomainFromHost("crm.example.com", base))
	assert.Equal(t, "", SubdomainFromHost("www.crm.example.com", base))
	assert.Equal(t, "", SubdomainFromHost("a.b.crm.example.com", base))
	assert.Equal(t, "", SubdomainFromHost("acme.evil.com", base))
	assert.Equal(t, "", SubdomainFromHost("acme.crm.example.com", ""))
}
