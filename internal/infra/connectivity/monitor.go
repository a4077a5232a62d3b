package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"newsreader/internal/domain/entity"
	"newsreader/internal/observability/metrics"
)

// MonitorConfig configures the HTTP probe.
type MonitorConfig struct {
	// ProbeURL is requested with HEAD; any answer below 500 means online.
	ProbeURL string
	// ProbeTimeout bounds one probe.
	ProbeTimeout time.Duration
	// Interval is the polling period of Run.
	Interval time.Duration
}

// DefaultMonitorConfig returns probe defaults for NewsAPI.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		ProbeURL:     "https://newsapi.org",
		ProbeTimeout: 3 * time.Second,
		Interval:     30 * time.Second,
	}
}

// Monitor probes connectivity on demand and, while Run is active, on a timer.
// Status changes are broadcast to subscribers.
type Monitor struct {
	client *http.Client
	cfg    MonitorConfig

	mu     sync.Mutex
	status entity.ConnectivityStatus
	known  bool
	subs   map[int]chan entity.ConnectivityStatus
	nextID int
	closed bool
}

// NewMonitor returns a Monitor. It does not probe until asked.
func NewMonitor(client *http.Client, cfg MonitorConfig) (*Monitor, error) {
	if cfg.ProbeURL == "" {
		return nil, errors.New("connectivity: probe URL is required")
	}
	def := DefaultMonitorConfig()
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = def.ProbeTimeout
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Monitor{
		client: client,
		cfg:    cfg,
		subs:   make(map[int]chan entity.ConnectivityStatus),
	}, nil
}

// CurrentStatus probes now and returns the result. A probe that cannot complete
// (DNS, refused, timeout, 5xx) reports offline. If ctx itself ended, the probe says
// nothing about the network: the last known status is returned, or offline if there
// is none, and subscribers are not notified.
func (m *Monitor) CurrentStatus(ctx context.Context) entity.ConnectivityStatus {
	err := m.probe(ctx)
	if err == nil {
		m.update(entity.StatusOnline)
		return entity.StatusOnline
	}
	if ctx.Err() != nil {
		if status, ok := m.LastStatus(); ok {
			return status
		}
		return entity.StatusOffline
	}
	slog.Debug("connectivity probe failed",
		slog.String("url", m.cfg.ProbeURL),
		slog.Any("error", err))
	m.update(entity.StatusOffline)
	return entity.StatusOffline
}

// LastStatus returns the most recent probe result without probing.
func (m *Monitor) LastStatus() (entity.ConnectivityStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.known
}

func (m *Monitor) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.cfg.ProbeURL, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe status %d", resp.StatusCode)
	}
	return nil
}

func (m *Monitor) update(status entity.ConnectivityStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := !m.known || m.status != status
	m.status = status
	m.known = true
	metrics.SetConnectivity(status.Online())
	if !changed || m.closed {
		return
	}

	slog.Info("connectivity changed", slog.String("status", string(status)))
	for _, ch := range m.subs {
		// Subscribers only need the latest value; drop a stale pending one.
		select {
		case <-ch:
		default:
		}
		ch <- status
	}
}

// Subscribe returns a channel receiving every status change and a function that
// unsubscribes and closes the channel. The channel is also closed when Run returns.
func (m *Monitor) Subscribe() (<-chan entity.ConnectivityStatus, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan entity.ConnectivityStatus, 1)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextID
	m.nextID++
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
}

// Run probes immediately and then every Interval until ctx is done. On return all
// subscriber channels are closed.
func (m *Monitor) Run(ctx context.Context) {
	defer m.closeSubscribers()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.CurrentStatus(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CurrentStatus(ctx)
		}
	}
}

func (m *Monitor) closeSubscribers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, ch := range m.subs {
		close(ch)
		delete(m.subs, id)
	}
}
