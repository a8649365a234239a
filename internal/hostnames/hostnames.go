package hostnames

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// Normalize converts a hostname to its canonical ASCII lower-case form.
// - Trims spaces
// - Drops a trailing dot
// - Applies IDNA Lookup ToASCII mapping
// - Lower-cases the result
func Normalize(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	host = strings.TrimSuffix(host, ".")
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || ascii == "" {
		ascii = host
	}
	return strings.ToLower(ascii)
}

// NormalizeHostPort normalizes the host part of a "host" or "host:port"
// address and keeps the port untouched. IPv6 literals keep their brackets.
func NormalizeHostPort(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("empty address")
	}
	if strings.Contains(addr, "/") {
		return "", fmt.Errorf("address %q must not contain a scheme or path", addr)
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		// No port present.
		if strings.HasPrefix(addr, "[") && strings.HasSuffix(addr, "]") {
			return addr, nil
		}
		if strings.Contains(addr, ":") {
			return "", fmt.Errorf("invalid address %q: %w", addr, err)
		}
		return Normalize(addr), nil
	}
	if host == "" {
		return "", fmt.Errorf("address %q has no host", addr)
	}
	if port == "" {
		return "", fmt.Errorf("address %q has an empty port", addr)
	}
	return net.JoinHostPort(Normalize(host), port), nil
}
