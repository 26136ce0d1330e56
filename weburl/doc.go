// Package weburl provides URL validation for outbound fetches.
//
// # Overview
//
// This package implements security validation for web URLs to prevent SSRF
// (Server-Side Request Forgery) attacks. Every component that issues an
// outbound HTTP request validates its target here first: reader-service
// fetches, archive availability lookups, resolved archive snapshot URLs,
// and raw media downloads.
//
// # URL Validation
//
// The Validate method checks URLs against multiple security criteria:
//
//   - Allows only the http and https schemes
//   - Blocks localhost variants (localhost, 127.0.0.1, ::1)
//   - Blocks local domains (.local, .internal)
//   - Blocks private IP ranges (RFC 1918, CGNAT, link-local), both for
//     literal IP hosts and for every address a domain name resolves to
//
// Rejections are typed (*SchemeError, *HostError, *AddressError) so
// callers can tell a security rejection from a transient fetch failure;
// IsBlocked collapses the three into one check. A security rejection is
// terminal for all fetch methods: a blocked destination must not be
// retried through an archive fallback.
//
// DNS resolution failure is deliberately not a rejection: availability
// failures belong to the fetch step, only security failures fail closed
// here.
//
// # IP Address Handling
//
// The IsPrivateIP function detects private/reserved IP addresses including:
//
//   - IPv4 private ranges (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
//   - IPv4 loopback (127.0.0.0/8)
//   - IPv4 link-local (169.254.0.0/16)
//   - CGNAT range (100.64.0.0/10)
//   - IPv6 loopback (::1)
//   - IPv6 unique local (fc00::/7)
//   - IPv6 link-local (fe80::/10)
//   - IPv6-mapped IPv4 addresses (::ffff:x.x.x.x)
//
// CIDRs are pre-compiled at package initialization for efficiency.
//
// # Usage
//
//	import "github.com/vaultpipe/vaultpipe/weburl"
//
//	if err := weburl.ValidateURL("https://example.com"); err != nil {
//	    if weburl.IsBlocked(err) {
//	        // security rejection: do not retry or fall back
//	    }
//	    return err
//	}
package weburl
