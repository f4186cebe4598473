// Package tenancy maps inbound hostnames to tenants.
package tenancy

import (
	"errors"
	"net"
	"strings"
)

var (
	// ErrInvalidHost is returned for empty or malformed Host values.
	ErrInvalidHost = errors.New("tenancy: invalid host")
	// ErrNoTenantHost is returned for hosts that never belong to a tenant,
	// such as the platform apex domain or a bare IP.
	ErrNoTenantHost = errors.New("tenancy: host does not identify a tenant")
)

// Lookup is the result of parsing a Host header. Exactly one of Subdomain
// or Domain is set.
type Lookup struct {
	// Hostname is the normalized host used as the cache key suffix.
	Hostname  string
	Subdomain string
	Domain    string
}

// ParseHost normalizes host and classifies it against baseDomain.
func ParseHost(host, baseDomain string) (Lookup, error) {
	h := normalizeHost(host)
	if h == "" {
		return Lookup{}, ErrInvalidHost
	}
	if h == "localhost" || isIP(h) {
		return Lookup{}, ErrNoTenantHost
	}
	if !validHostname(h) {
		return Lookup{}, ErrInvalidHost
	}

	base := normalizeHost(baseDomain)
	if base != "" {
		if h == base || h == "www."+base {
			return Lookup{}, ErrNoTenantHost
		}
		if sub, ok := strings.CutSuffix(h, "."+base); ok {
			if strings.Contains(sub, ".") {
				return Lookup{}, ErrNoTenantHost
			}
			return Lookup{Hostname: h, Subdomain: sub}, nil
		}
	}

	return Lookup{Hostname: h, Domain: strings.TrimPrefix(h, "www.")}, nil
}

// SubdomainLookup builds the Lookup for a tenant addressed directly by
// subdomain, as used for the development fallback.
func SubdomainLookup(subdomain, baseDomain string) Lookup {
	sub := strings.ToLower(strings.TrimSpace(subdomain))
	return Lookup{Hostname: sub + "." + normalizeHost(baseDomain), Subdomain: sub}
}

// NormalizeDomain lowercases a custom domain and checks that it can route
// to a tenant: a dotted hostname outside the platform base domain. A leading
// "www." is dropped since both forms resolve to the same tenant.
func NormalizeDomain(domain, baseDomain string) (string, error) {
	lk, err := ParseHost(domain, baseDomain)
	if err != nil {
		return "", err
	}
	if lk.Domain == "" || !strings.Contains(lk.Domain, ".") {
		return "", ErrNoTenantHost
	}
	return lk.Domain, nil
}

// NormalizeSubdomain lowercases a tenant subdomain and checks that it is a
// single DNS label.
func NormalizeSubdomain(sub string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(sub))
	if s == "" || strings.Contains(s, ".") || !validHostname(s) || s == "www" {
		return "", ErrInvalidHost
	}
	return s, nil
}

func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return ""
	}
	if strings.HasPrefix(h, "[") {
		// [v6] or [v6]:port
		if end := strings.Index(h, "]"); end > 0 {
			return h[1:end]
		}
		return ""
	}
	if hostPart, _, err := net.SplitHostPort(h); err == nil {
		h = hostPart
	}
	return strings.TrimSuffix(h, ".")
}

func validHostname(h string) bool {
	if len(h) > 253 {
		return false
	}
	for _, label := range strings.Split(h, ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := range len(label) {
			c := label[i]
			if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
				return false
			}
		}
	}
	return true
}

func isIP(h string) bool {
	return net.ParseIP(h) != nil
}
