package httputil

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"plex_harvester/config"
)

type Clients struct {
	Scraping *http.Client // listing pages, optionally proxied
	API      *http.Client // direct, for internal endpoints
}

// NewClients builds the shared HTTP clients. When a proxy is configured the
// scraping client is forced onto HTTP/1.1: some forward proxies mangle h2
// CONNECT tunnels.
func NewClients(proxyCfg *config.ProxyConfig) *Clients {
	scraping := &http.Client{
		Timeout: 20 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	if proxyCfg.URL != "" {
		proxyURL, err := url.Parse(proxyCfg.URL)
		if err == nil {
			scraping.Transport = &http.Transport{
				Proxy:             http.ProxyURL(proxyURL),
				ForceAttemptHTTP2: false,
				TLSNextProto:      make(map[string]func(string, *tls.Conn) http.RoundTripper),
			}
		}
	}

	return &Clients{
		Scraping: scraping,
		API:      &http.Client{Timeout: 30 * time.Second},
	}
}
