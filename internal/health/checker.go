package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds health check configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// StatusChangeFunc is an optional callback fired when a dependency crosses
// between healthy and degraded.
type StatusChangeFunc func(name string, healthy bool)

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(name string, success bool)

// Status is the last known state of one dependency.
type Status struct {
	Healthy     bool      `json:"healthy"`
	FailCount   int       `json:"fail_count"`
	LastError   string    `json:"last_error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Checker runs periodic dependency probes. A dependency starts healthy,
// becomes degraded after FailThreshold consecutive failed probes and recovers
// on the next successful one.
type Checker struct {
	deps      map[string]Pinger
	status    map[string]*Status
	mu        sync.Mutex
	cfg       Config
	onChange  StatusChangeFunc
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a new Checker.
func New(cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 15 * time.Second
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 3 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	return &Checker{
		deps:   make(map[string]Pinger),
		status: make(map[string]*Status),
		cfg:    cfg,
		logger: logger,
	}
}

// Add registers a dependency under name.
func (h *Checker) Add(name string, p Pinger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deps[name] = p
	h.status[name] = &Status{Healthy: true}
}

// SetStatusChange configures the status transition callback.
func (h *Checker) SetStatusChange(fn StatusChangeFunc) {
	h.onChange = fn
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start probes every dependency immediately and then once per CheckInterval
// until quit is closed.
func (h *Checker) Start(quit <-chan struct{}) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		h.CheckAll(context.Background())
		select {
		case <-ticker.C:
		case <-quit:
			return
		}
	}
}

// CheckAll probes all dependencies concurrently.
func (h *Checker) CheckAll(ctx context.Context) {
	h.mu.Lock()
	deps := make(map[string]Pinger, len(h.deps))
	for name, p := range h.deps {
		deps[name] = p
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for name, p := range deps {
		wg.Add(1)
		go func(name string, p Pinger) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, h.cfg.ProbeTimeout)
			err := p.Ping(probeCtx)
			cancel()
			h.record(name, err)
		}(name, p)
	}
	wg.Wait()
}

func (h *Checker) record(name string, err error) {
	success := err == nil
	if h.onMetrics != nil {
		h.onMetrics(name, success)
	}

	h.mu.Lock()
	st := h.status[name]
	wasHealthy := st.Healthy
	st.LastChecked = time.Now().UTC()
	if success {
		st.FailCount = 0
		st.LastError = ""
		st.Healthy = true
	} else {
		st.FailCount++
		st.LastError = err.Error()
		if st.FailCount >= h.cfg.FailThreshold {
			st.Healthy = false
		}
	}
	healthy, count := st.Healthy, st.FailCount
	h.mu.Unlock()

	switch {
	case healthy && !wasHealthy:
		h.logger.Info("health: recovered", zap.String("dependency", name))
	case !healthy && wasHealthy:
		h.logger.Warn("health: degraded",
			zap.String("dependency", name),
			zap.Int("fail_count", count),
			zap.Error(err),
		)
	default:
		return
	}
	if h.onChange != nil {
		h.onChange(name, healthy)
	}
}

// Ready reports whether every dependency is healthy.
func (h *Checker) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, st := range h.status {
		if !st.Healthy {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of every dependency's status.
func (h *Checker) Snapshot() map[string]Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]Status, len(h.status))
	for name, st := range h.status {
		out[name] = *st
	}
	return out
}

// Names returns the registered dependency names in sorted order.
func (h *Checker) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
