// Package snapshot implements the snapshot persister (C6): it serialises
// {event log, session store, total-task counter, process epoch start} to a
// single JSON file, on a timer and on graceful shutdown, and loads it back
// on startup.
package snapshot

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhaveripatric/x402-agent-gateway/internal/eventlog"
	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
	"github.com/jhaveripatric/x402-agent-gateway/internal/session"
	"github.com/jhaveripatric/x402-agent-gateway/internal/taskstore"
)

// Document is the on-disk shape, matching spec.md §6.4.
type Document struct {
	PaymentLog   []eventlog.Event         `json:"paymentLog"`
	SIWXSessions session.Snapshot         `json:"siwxSessions"`
	TotalTasks   int64                    `json:"totalTasks"`
	StartedAt    time.Time                `json:"startedAt"`
	SavedAt      time.Time                `json:"savedAt"`
}

// Persister periodically writes a Document to disk and restores it at
// startup.
type Persister struct {
	path     string
	log      *eventlog.Log
	sessions *session.Store
	tasks    *taskstore.Store
	logger   logx.Logger

	mu        sync.Mutex
	startedAt time.Time

	cron *cron.Cron
}

// New creates a persister bound to the given stores. It does not yet load
// or schedule anything; call Load then Start.
func New(path string, log *eventlog.Log, sessions *session.Store, tasks *taskstore.Store, logger logx.Logger) *Persister {
	if logger == nil {
		logger = logx.NoopLogger{}
	}
	return &Persister{
		path:     path,
		log:      log,
		sessions: sessions,
		tasks:    tasks,
		logger:   logger,
	}
}

// Load restores state from disk, tolerating an absent, empty, or malformed
// file by starting fresh with the current wall-clock epoch (§4.5).
func (p *Persister) Load() {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if err != nil {
		p.logger.Info("snapshot: no prior snapshot, starting fresh", map[string]any{"path": p.path, "reason": err.Error()})
		p.startedAt = time.Now()
		return
	}
	if len(data) == 0 {
		p.logger.Info("snapshot: empty snapshot file, starting fresh", map[string]any{"path": p.path})
		p.startedAt = time.Now()
		return
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		p.logger.Error("snapshot: malformed snapshot file, starting fresh", map[string]any{"path": p.path, "error": err.Error()})
		p.startedAt = time.Now()
		return
	}

	p.log.LoadSnapshot(doc.PaymentLog)
	p.sessions.LoadSnapshot(doc.SIWXSessions)
	p.tasks.SeedTotal(doc.TotalTasks)
	if doc.StartedAt.IsZero() {
		p.startedAt = time.Now()
	} else {
		p.startedAt = doc.StartedAt
	}
	p.logger.Info("snapshot: restored", map[string]any{"path": p.path, "events": len(doc.PaymentLog), "sessions": len(doc.SIWXSessions)})
}

// Save performs one synchronous snapshot write. Failures are logged and
// otherwise swallowed: in-memory state remains authoritative (§7).
func (p *Persister) Save() {
	p.mu.Lock()
	started := p.startedAt
	p.mu.Unlock()

	doc := Document{
		PaymentLog:   p.log.All(),
		SIWXSessions: p.sessions.ToSnapshot(),
		TotalTasks:   p.tasks.Total(),
		StartedAt:    started,
		SavedAt:      time.Now(),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		p.logger.Error("snapshot: marshal failed", map[string]any{"error": err.Error()})
		return
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		p.logger.Error("snapshot: write failed", map[string]any{"path": p.path, "error": err.Error()})
		return
	}
	if err := os.Rename(tmp, p.path); err != nil {
		p.logger.Error("snapshot: rename failed", map[string]any{"path": p.path, "error": err.Error()})
		return
	}
	p.logger.Debug("snapshot: saved", map[string]any{"path": p.path})
}

// StartedAt returns the process epoch start recorded at Load time.
func (p *Persister) StartedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startedAt
}

// Start schedules periodic snapshots every interval using a cron job,
// mirroring the background-job scheduling style of the periodic jobs in
// the wider example pack. It returns a stop function.
func (p *Persister) Start(interval time.Duration) func() {
	c := cron.New()
	spec := everySpec(interval)
	_, err := c.AddFunc(spec, p.Save)
	if err != nil {
		p.logger.Error("snapshot: failed to schedule periodic save, falling back to ticker", map[string]any{"error": err.Error()})
		return p.startTicker(interval)
	}
	p.cron = c
	c.Start()
	return func() { c.Stop() }
}

// startTicker is the fallback scheduling path if the cron spec somehow
// fails to parse; kept simple and dependency-free.
func (p *Persister) startTicker(interval time.Duration) func() {
	done := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				p.Save()
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// everySpec renders a robfig/cron "@every" duration spec.
func everySpec(d time.Duration) string {
	return "@every " + d.String()
}
