package outreach

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Manager keeps at most one live run per campaign and owns their lifetimes.
// The HTTP layer starts and cancels runs through it; shutdown waits for the
// active runs to exit.
type Manager struct {
	runner *Runner
	log    *slog.Logger

	mu      sync.Mutex
	base    context.Context
	cancel  context.CancelFunc
	running map[uint64]context.CancelFunc
	wg      sync.WaitGroup
}

func NewManager(runner *Runner, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Manager{
		runner:  runner,
		log:     log,
		base:    base,
		cancel:  cancel,
		running: make(map[uint64]context.CancelFunc),
	}
}

// Start launches a run for campaignID unless one is already live.
// Returns false when a run is in flight.
func (m *Manager) Start(campaignID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.base.Err() != nil {
		return false
	}
	if _, live := m.running[campaignID]; live {
		return false
	}

	ctx, cancel := context.WithCancel(m.base)
	m.running[campaignID] = cancel
	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.running, campaignID)
			m.mu.Unlock()
			cancel()
		}()
		if err := m.runner.Run(ctx, campaignID); err != nil && !errors.Is(err, context.Canceled) {
			m.log.Error("campaign run failed", "campaign_id", campaignID, "err", err)
		}
	}()
	return true
}

// Cancel interrupts a live run. The persisted pause is the service's job;
// this only bounds how long the runner keeps going.
func (m *Manager) Cancel(campaignID uint64) bool {
	m.mu.Lock()
	cancel, live := m.running[campaignID]
	m.mu.Unlock()
	if live {
		cancel()
	}
	return live
}

// Running reports whether campaignID has a live run.
func (m *Manager) Running(campaignID uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, live := m.running[campaignID]
	return live
}

// Shutdown cancels every live run and waits for them to finish.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()
}
