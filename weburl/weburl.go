// Package weburl provides URL validation for outbound fetches.
// It implements SSRF prevention including private IP detection and
// resolve-time DNS checking.
package weburl

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Pre-compiled CIDR networks for private/reserved IP ranges.
// These are parsed once at package initialization for efficiency.
var (
	cgnat    *net.IPNet // 100.64.0.0/10 - Carrier-grade NAT
	v6unique *net.IPNet // fc00::/7 - IPv6 unique local
	v6link   *net.IPNet // fe80::/10 - IPv6 link-local
)

func init() {
	var err error

	_, cgnat, err = net.ParseCIDR("100.64.0.0/10")
	if err != nil {
		panic("invalid CGNAT CIDR: " + err.Error())
	}

	_, v6unique, err = net.ParseCIDR("fc00::/7")
	if err != nil {
		panic("invalid IPv6 unique local CIDR: " + err.Error())
	}

	_, v6link, err = net.ParseCIDR("fe80::/10")
	if err != nil {
		panic("invalid IPv6 link-local CIDR: " + err.Error())
	}
}

// SchemeError reports a URL scheme other than http or https.
type SchemeError struct {
	Scheme string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("blocked URL scheme %q", e.Scheme)
}

// HostError reports a hostname on the loopback/local deny-list.
type HostError struct {
	Host string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("blocked hostname %q", e.Host)
}

// AddressError reports an IP address in a private or reserved range,
// either given literally or reached through DNS resolution.
type AddressError struct {
	Host string
	IP   net.IP
}

func (e *AddressError) Error() string {
	if e.Host != "" && e.Host != e.IP.String() {
		return fmt.Sprintf("blocked address: %q resolves to private IP %s", e.Host, e.IP)
	}
	return fmt.Sprintf("blocked private IP %s", e.IP)
}

// IsBlocked reports whether err is one of the validation rejections.
// Blocked URLs must never be retried through a fallback fetch method.
func IsBlocked(err error) bool {
	switch err.(type) {
	case *SchemeError, *HostError, *AddressError:
		return true
	}
	return false
}

// loopbackHosts is the fixed deny-list of hostnames that always refer
// to the local machine regardless of DNS.
var loopbackHosts = map[string]bool{
	"localhost":             true,
	"localhost.localdomain": true,
	"127.0.0.1":             true,
	"::1":                   true,
}

// Validator validates URLs for SSRF safety. The zero value uses the
// default system resolver; LookupIP can be overridden in tests.
type Validator struct {
	// LookupIP resolves a hostname to its addresses. Nil means net.LookupIP.
	LookupIP func(host string) ([]net.IP, error)
}

// Validate checks a URL against the SSRF rules. It returns nil for a
// safe URL, or a typed *SchemeError, *HostError, or *AddressError.
//
// DNS resolution failure is not a validation failure: an unresolvable
// host is allowed through so the subsequent fetch surfaces the real
// network error. Security checks fail closed; availability checks
// do not.
func (v *Validator) Validate(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &SchemeError{Scheme: parsed.Scheme}
	}

	host := parsed.Hostname()
	lowHost := strings.ToLower(host)

	if loopbackHosts[lowHost] {
		return &HostError{Host: host}
	}

	// Block local-only domain suffixes
	if strings.HasSuffix(lowHost, ".local") || strings.HasSuffix(lowHost, ".internal") {
		return &HostError{Host: host}
	}

	// Literal IP address
	if ip := net.ParseIP(host); ip != nil {
		if IsPrivateIP(ip) {
			return &AddressError{Host: host, IP: ip}
		}
		return nil
	}

	// Domain name: resolve and reject if any address is private
	lookup := v.LookupIP
	if lookup == nil {
		lookup = net.LookupIP
	}
	ips, err := lookup(host)
	if err != nil {
		// Unresolvable hosts fail at fetch time, not here
		return nil
	}
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return &AddressError{Host: host, IP: ip}
		}
	}

	return nil
}

// defaultValidator backs the package-level ValidateURL.
var defaultValidator = &Validator{}

// ValidateURL validates a URL with the default system resolver.
func ValidateURL(rawURL string) error {
	return defaultValidator.Validate(rawURL)
}

// IsPrivateIP checks if an IP is in private/reserved ranges.
// It handles IPv4, IPv6, and IPv6-mapped IPv4 addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return true
	}

	// Check for IPv6-mapped IPv4 addresses (::ffff:x.x.x.x)
	// Convert to IPv4 if it's an IPv4-mapped IPv6 address
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		// Re-check after conversion
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return true
		}
	}

	// Check for additional reserved ranges using pre-compiled CIDRs
	if cgnat.Contains(ip) || v6unique.Contains(ip) || v6link.Contains(ip) {
		return true
	}

	return false
}
