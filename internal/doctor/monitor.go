package doctor

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Monitor runs the integrity checks periodically and logs when the set of
// problems changes between runs, so a drifting URL table is noticed without
// anyone running the doctor by hand.
type Monitor struct {
	doctor   *Doctor
	interval time.Duration
	log      *zap.Logger

	mu    sync.Mutex
	known map[string]bool // problems seen on the previous run
}

// NewMonitor creates and returns a new instance of Monitor.
// interval determines how frequently the checks run.
func NewMonitor(doctor *Doctor, interval time.Duration, log *zap.Logger) *Monitor {
	return &Monitor{
		doctor:   doctor,
		interval: interval,
		log:      log,
		known:    make(map[string]bool),
	}
}

// Start launches the periodic check loop. This is a blocking function that
// runs until the program stops; the server starts it in its own goroutine.
func (m *Monitor) Start() {
	m.log.Info("starting url integrity monitor", zap.Duration("interval", m.interval))
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// Immediate check on startup before waiting for the first tick.
	m.runOnce()

	for range ticker.C {
		m.runOnce()
	}
}

func (m *Monitor) runOnce() {
	problems, err := m.doctor.Check()
	if err != nil {
		m.log.Error("url integrity check failed", zap.Error(err))
		return
	}

	current := make(map[string]bool, len(problems))
	for _, problem := range problems {
		current[problem.String()] = true
	}

	m.mu.Lock()
	previous := m.known
	m.known = current
	m.mu.Unlock()

	for key := range current {
		if !previous[key] {
			m.log.Warn("new url integrity problem", zap.String("problem", key))
		}
	}
	for key := range previous {
		if !current[key] {
			m.log.Info("url integrity problem resolved", zap.String("problem", key))
		}
	}

	if len(problems) == 0 {
		m.log.Debug("url integrity check passed")
	}
}
