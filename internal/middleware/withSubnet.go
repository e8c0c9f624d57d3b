package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
)

// RealIPHeader carries the client address set by the fronting proxy.
const RealIPHeader = "X-Real-IP"

// WithSubnet only lets through requests whose X-Real-IP, or the connection
// address when the header is absent, falls inside cidr. An empty cidr
// disables the check.
func WithSubnet(cidr string) (func(next http.Handler) http.Handler, error) {
	if cidr == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}

	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("trusted subnet: %w", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := clientAddr(r)
			if !ok || !prefix.Contains(addr) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func clientAddr(r *http.Request) (netip.Addr, bool) {
	raw := r.Header.Get(RealIPHeader)
	if raw == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			return netip.Addr{}, false
		}
		raw = host
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
