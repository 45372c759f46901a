package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// IPExtractor builds the echo client address extractor. X-Forwarded-For is
// only honoured when the connecting peer is one of trusted; hops are read
// right to left and the first untrusted one is the client. Without trusted
// proxies the socket address is used and forwarding headers are ignored.
func IPExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// ClientIP returns the client address as resolved by the echo instance's
// IPExtractor, which must be set from IPExtractor.
func ClientIP(c echo.Context) string {
	return c.RealIP()
}
