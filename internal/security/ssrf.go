package security

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"scout/internal/domain"
)

// blockedPrefixes are private, loopback, link-local and otherwise reserved
// ranges that outbound fetches must never reach.
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::/128"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// IsPrivateAddr reports whether addr falls in a blocked range. IPv4-mapped
// IPv6 addresses are checked as IPv4.
func IsPrivateAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func blocked(op, detail string) error {
	return domain.NewDomainError(op, domain.ErrSSRFBlocked, detail)
}

// CheckURL rejects URLs that are not http(s) or whose host resolves to a
// blocked address. The dial-time check in NewSafeTransport still applies;
// this gives an early, readable error.
func CheckURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return blocked("CheckURL", fmt.Sprintf("invalid URL: %v", err))
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return blocked("CheckURL", "missing URL scheme, only http/https allowed")
	default:
		return blocked("CheckURL", fmt.Sprintf("scheme %q not allowed, only http/https", u.Scheme))
	}

	host := u.Hostname()
	if host == "" {
		return blocked("CheckURL", "empty hostname")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if IsPrivateAddr(addr) {
			return blocked("CheckURL", fmt.Sprintf("IP %s is private/reserved", addr))
		}
		return nil
	}

	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return blocked("CheckURL", fmt.Sprintf("DNS lookup failed: %v", err))
	}
	for _, addr := range addrs {
		if IsPrivateAddr(addr) {
			return blocked("CheckURL", fmt.Sprintf("host %s resolves to private IP %s", host, addr))
		}
	}
	return nil
}

// dialControl runs after name resolution, on the exact address being dialled,
// so a DNS answer that changes between CheckURL and the dial is still caught.
func dialControl(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return blocked("SafeTransport.Dial", fmt.Sprintf("unparseable address %q", address))
	}
	if IsPrivateAddr(ap.Addr()) {
		return blocked("SafeTransport.Dial", fmt.Sprintf("dial to private IP %s", ap.Addr()))
	}
	return nil
}

// NewSafeTransport returns a transport that refuses to connect to blocked
// addresses.
func NewSafeTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   dialControl,
	}
	return &http.Transport{
		Proxy:                 nil,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       60 * time.Second,
	}
}

// NewSafeClient returns an HTTP client on NewSafeTransport that re-checks
// every redirect target and stops after maxRedirects hops.
func NewSafeClient(timeout time.Duration, maxRedirects int) *http.Client {
	return &http.Client{
		Transport: NewSafeTransport(),
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return CheckURL(req.Context(), req.URL.String())
		},
	}
}
