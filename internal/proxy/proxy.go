package proxy

import (
	"fmt"
	"math/rand"
	"net/http"
	"net/url"

	"github.com/williampepple1/openvc-scraper/internal/config"
)

// Manager handles proxy configuration and rotation
type Manager struct {
	Config config.ProxyConfig
}

// NewManager creates a new proxy manager
func NewManager(config config.ProxyConfig) *Manager {
	return &Manager{
		Config: config,
	}
}

// Enabled reports whether requests should go through a proxy
func (m *Manager) Enabled() bool {
	return m.Config.Enabled && len(m.Config.List) > 0
}

// GetProxyURL returns a proxy URL from the configuration, or nil when
// proxying is disabled. Credentials from the auth section are attached.
func (m *Manager) GetProxyURL() (*url.URL, error) {
	if !m.Enabled() {
		return nil, nil
	}

	// Select a proxy
	proxyStr := m.Config.List[0]
	if m.Config.Rotate && len(m.Config.List) > 1 {
		proxyStr = m.Config.List[rand.Intn(len(m.Config.List))]
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("parse proxy %q: %w", proxyStr, err)
	}
	if proxyURL.Host == "" {
		return nil, fmt.Errorf("parse proxy %q: missing host", proxyStr)
	}

	if m.Config.Auth.Username != "" && m.Config.Auth.Password != "" {
		proxyURL.User = url.UserPassword(m.Config.Auth.Username, m.Config.Auth.Password)
	}

	return proxyURL, nil
}

// ApplyToTransport applies the proxy to an HTTP transport and returns the
// proxy address without credentials
func (m *Manager) ApplyToTransport(transport *http.Transport) (string, error) {
	proxyURL, err := m.GetProxyURL()
	if err != nil {
		return "", err
	}

	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
		return Redact(proxyURL), nil
	}

	return "", nil
}

// BrowserProxy returns the proxy server for a browser launch flag and the
// credentials to answer proxy auth challenges with. Browsers ignore
// credentials embedded in the proxy server flag.
func (m *Manager) BrowserProxy() (server string, user *url.Userinfo, err error) {
	proxyURL, err := m.GetProxyURL()
	if err != nil || proxyURL == nil {
		return "", nil, err
	}
	user = proxyURL.User
	proxyURL.User = nil
	return proxyURL.String(), user, nil
}

// Redact returns u without its user info
func Redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	cp := *u
	cp.User = nil
	return cp.String()
}
