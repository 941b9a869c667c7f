// Package proxymgr rotates the proxies extraction requests go through.
// A proxy that keeps failing is backed off exponentially and probed by a TCP health check.
package proxymgr

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/url"
	"sync"
	"time"

	"ytgrab/internal/config"
	"ytgrab/internal/errs"
	"ytgrab/internal/observability"
)

const (
	healthCheckTimeout = 10 * time.Second
	maxBackoff         = time.Hour

	defaultSOCKSPort = "1080"
	defaultHTTPPort  = "8080"
)

type proxyInfo struct {
	url          string
	label        string
	failureCount int
	backoffUntil time.Time
	lastCheck    time.Time
}

func (p *proxyInfo) available(now time.Time) bool {
	return !now.Before(p.backoffUntil)
}

// Manager manages proxy rotation and health.
type Manager struct {
	log     *slog.Logger
	cfg     config.Proxy
	metrics *observability.Metrics
	now     func() time.Time
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)

	mu      sync.Mutex
	proxies map[string]*proxyInfo
	order   []string
}

// New creates a manager over cfg.Proxies.
func New(log *slog.Logger, cfg config.Proxy, metrics *observability.Metrics) *Manager {
	dialer := &net.Dialer{Timeout: healthCheckTimeout}

	mgr := &Manager{
		log:     log.With(slog.String("package", "proxymgr")),
		cfg:     cfg,
		metrics: metrics,
		now:     time.Now,
		dial:    dialer.DialContext,
		proxies: make(map[string]*proxyInfo, len(cfg.Proxies)),
		order:   make([]string, 0, len(cfg.Proxies)),
	}

	for _, proxy := range cfg.Proxies {
		if _, dup := mgr.proxies[proxy]; dup {
			continue
		}

		mgr.proxies[proxy] = &proxyInfo{url: proxy, label: Redact(proxy)}
		mgr.order = append(mgr.order, proxy)
	}

	metrics.SetProxiesAvailable(len(mgr.order))

	return mgr
}

// Redact strips credentials from a proxy URL so it can be logged and used as a metric label.
func Redact(proxyURL string) string {
	u, err := url.Parse(proxyURL)
	if err != nil || u.Host == "" {
		return "invalid"
	}

	return u.Scheme + "://" + u.Host
}

// Pick returns a random available proxy.
// It returns "" with no error when no proxies are configured.
func (m *Manager) Pick() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		return "", nil
	}

	available := m.availableLocked()
	if len(available) == 0 {
		return "", errs.ErrNoProxiesAvailable
	}

	proxy := available[rand.IntN(len(available))]
	m.metrics.RecordProxyRequest(m.proxies[proxy].label)

	return proxy, nil
}

// MarkFailed counts a failure. Once MaxFailures is reached the proxy is backed off,
// doubling the backoff with every further failure up to an hour.
func (m *Manager) MarkFailed(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.proxies[proxyURL]
	if !ok {
		return
	}

	info.failureCount++
	m.metrics.RecordProxyFailure(info.label)

	if info.failureCount < m.cfg.MaxFailures {
		return
	}

	backoff := min(m.cfg.FailureBackoff<<min(info.failureCount-m.cfg.MaxFailures, 16), maxBackoff)
	info.backoffUntil = m.now().Add(backoff)

	m.log.Warn("proxy backed off",
		slog.String("proxy", info.label),
		slog.Int("failure_count", info.failureCount),
		slog.Duration("backoff", backoff))

	m.metrics.SetProxiesAvailable(len(m.availableLocked()))
}

// MarkSuccess resets the failure count of a proxy.
func (m *Manager) MarkSuccess(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, ok := m.proxies[proxyURL]
	if !ok {
		return
	}

	info.failureCount = 0
	info.backoffUntil = time.Time{}

	m.metrics.SetProxiesAvailable(len(m.availableLocked()))
}

// HealthCheck dials the proxy host and records the outcome.
func (m *Manager) HealthCheck(ctx context.Context, proxyURL string) error {
	addr, err := dialAddr(proxyURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		m.MarkFailed(proxyURL)

		return fmt.Errorf("dial proxy: %w", err)
	}

	conn.Close()

	m.mu.Lock()
	if info, ok := m.proxies[proxyURL]; ok {
		info.lastCheck = m.now()
	}
	m.mu.Unlock()

	m.MarkSuccess(proxyURL)

	return nil
}

// dialAddr is host:port of the proxy, with the scheme's default port when none is given.
func dialAddr(proxyURL string) (string, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return "", fmt.Errorf("parse proxy URL: %w", err)
	}

	if u.Host == "" {
		return "", fmt.Errorf("proxy URL %q has no host", Redact(proxyURL))
	}

	if u.Port() != "" {
		return u.Host, nil
	}

	switch u.Scheme {
	case "socks5", "socks5h", "socks4", "socks4a":
		return net.JoinHostPort(u.Hostname(), defaultSOCKSPort), nil
	case "http", "https":
		return net.JoinHostPort(u.Hostname(), defaultHTTPPort), nil
	default:
		return "", fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
}

// StartHealthChecker probes every proxy each HealthCheckInterval until ctx ends.
func (m *Manager) StartHealthChecker(ctx context.Context) {
	if m.cfg.HealthCheckInterval <= 0 || len(m.order) == 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(m.cfg.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkAll(ctx)
			}
		}
	}()

	m.log.Info("proxy health checker started",
		slog.Duration("interval", m.cfg.HealthCheckInterval),
		slog.Int("proxy_count", len(m.order)))
}

// Count returns the number of configured proxies.
func (m *Manager) Count() int {
	return len(m.order)
}

// AvailableCount returns the number of proxies not in backoff.
func (m *Manager) AvailableCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.availableLocked())
}

func (m *Manager) availableLocked() []string {
	now := m.now()
	available := make([]string, 0, len(m.order))

	for _, proxy := range m.order {
		if m.proxies[proxy].available(now) {
			available = append(available, proxy)
		}
	}

	return available
}

func (m *Manager) checkAll(ctx context.Context) {
	for _, proxy := range m.order {
		if ctx.Err() != nil {
			return
		}

		if err := m.HealthCheck(ctx, proxy); err != nil {
			m.log.Debug("proxy health check failed",
				slog.String("proxy", Redact(proxy)),
				slog.Any("error", err))
		}
	}
}
