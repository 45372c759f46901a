package session

import (
	"net"
	"regexp"
	"strings"
)

const maxSubdomainLen = 63

var (
	subdomainInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	subdomainDashes  = regexp.MustCompile(`-+`)
	subdomainFormat  = regexp.MustCompile(`^[a-z0-9-]{3,63}$`)
)

// Subdomain derives a subdomain label from a display name or email local part.
func Subdomain(source string) string {
	s := strings.ToLower(source)
	s = subdomainInvalid.ReplaceAllString(s, "-")
	s = subdomainDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSubdomainLen {
		s = strings.TrimRight(s[:maxSubdomainLen], "-")
	}
	return s
}

// ValidSubdomain reports whether s is acceptable as a client chosen subdomain.
func ValidSubdomain(s string) bool {
	return subdomainFormat.MatchString(s)
}

func withSuffix(base, suffix string) string {
	room := maxSubdomainLen - len(suffix) - 1
	if len(base) > room {
		base = strings.TrimRight(base[:room], "-")
	}
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// SubdomainFromHost returns the tenant label of host under baseDomain, e.g.
// "acme" for "acme.crm.example.com". It returns "" for the bare base domain,
// "www", foreign hosts and nested labels.
func SubdomainFromHost(host, baseDomain string) string {
	if baseDomain == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	suffix := "." + strings.ToLower(baseDomain)
	if !strings.HasSuffix(host, suffix) {
		return ""
	}
	label := strings.TrimSuffix(host, suffix)
	if label == "" || label == "www" || strings.Contains(label, ".") {
		return ""
	}
	return label
}
