package app

import (
	"net"
	"net/http"
	"time"
)

// newOutboundHTTPClient returns an HTTP client tuned for many parallel
// outbound requests without client-side throttling. The per-request timeout
// is layered on top by the fetcher and providers.
func newOutboundHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          0,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport, Timeout: 30 * time.Second}
}
