package session

import (
	"sort"

	"github.com/suteetoe/tenantguard/internal/sanitize"
	"github.com/suteetoe/tenantguard/pkg/jwtutil"
	"github.com/suteetoe/tenantguard/prometheus"
)

// Claims is the signed session payload.
type Claims = jwtutil.UserClaims

// refreshable lists the claim keys a client may change on refresh, with the
// sanitizer applied to each.
var refreshable = map[string]func(string) string{
	"name":  sanitize.Text,
	"image": sanitize.URL,
}

// trackedRejections are the keys worth a metric label of their own when a
// client tries to refresh them.
var trackedRejections = map[string]bool{
	"id": true, "tenantId": true, "role": true, "email": true,
	"sub": true, "exp": true, "iat": true, "nbf": true, "jti": true,
}

// Seed builds the first claims of a session from the principal.
func (i *Issuer) Seed(p *Principal) Claims {
	claims := Claims{
		UserID: p.ID,
		Role:   string(p.Role),
		Name:   p.Name,
		Email:  p.Email,
		Image:  p.Image,
	}
	if p.TenantID != "" {
		tenantID := p.TenantID
		claims.TenantID = &tenantID
	}
	return claims
}

// Sign returns the token for claims with a fresh lifetime.
func (i *Issuer) Sign(claims Claims) (string, error) {
	return i.tokens.GenerateToken(claims)
}

// Verify parses and checks a session token.
func (i *Issuer) Verify(token string) (*Claims, error) {
	return i.tokens.ValidateToken(token)
}

// Refresh merges a client supplied update into claims. Only display fields
// are taken, sanitized; identity, tenant and role never change here. The
// rejected keys are returned sorted.
func (i *Issuer) Refresh(claims Claims, update map[string]any) (Claims, []string) {
	var rejected []string
	for key, value := range update {
		clean, ok := refreshable[key]
		s, isString := value.(string)
		if !ok || !isString {
			rejected = append(rejected, key)
			label := "other"
			if trackedRejections[key] {
				label = key
			}
			prometheus.RecordRefreshRejected(label)
			continue
		}
		switch key {
		case "name":
			claims.Name = clean(s)
		case "image":
			claims.Image = clean(s)
		}
	}
	sort.Strings(rejected)
	return claims, rejected
}
