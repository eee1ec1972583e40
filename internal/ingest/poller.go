// Package ingest drives the request directory: list, dispatch, wait, repeat.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/internal/core"
)

// DefaultPollInterval is the idle wait between scans.
const DefaultPollInterval = 2 * time.Second

// Dispatcher handles one request file.
type Dispatcher interface {
	Dispatch(ctx context.Context, path string) (core.Outcome, error)
}

// StatusReporter is told after every scan whether the inbound directory was readable.
type StatusReporter interface {
	SetServing(serving bool)
}

// ScanStats summarizes one pass over the inbound directory.
type ScanStats struct {
	Scanned   uint32 // directory entries listed
	Matched   uint32 // regular, non-hidden files dispatched
	Succeeded uint32 // responses written
	Ignored   uint32 // unrecognized names dropped
	Failed    uint32 // left in place for the next scan
}

type Poller struct {
	dir        string
	interval   time.Duration
	dispatcher Dispatcher
	clock      clockz.Clock
	reporter   StatusReporter
	logger     *slog.Logger

	hidden map[string]struct{} // hidden files already reported
}

type Option func(*Poller)

func WithClock(c clockz.Clock) Option {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithStatusReporter(r StatusReporter) Option {
	return func(p *Poller) { p.reporter = r }
}

func NewPoller(dir string, interval time.Duration, d Dispatcher, logger *slog.Logger, opts ...Option) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		dir:        dir,
		interval:   interval,
		dispatcher: d,
		clock:      clockz.RealClock,
		logger:     logger,
		hidden:     make(map[string]struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run scans until ctx is cancelled. A failed scan is logged and retried after
// the usual interval; it never ends the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "dir", p.dir, "interval", p.interval)
	for {
		stats, err := p.RunOnce(ctx)
		if err != nil {
			p.logger.Error("scan failed", "dir", p.dir, "error", err)
		} else if stats.Matched > 0 {
			p.logger.Debug("scan complete",
				"scanned", stats.Scanned,
				"matched", stats.Matched,
				"succeeded", stats.Succeeded,
				"ignored", stats.Ignored,
				"failed", stats.Failed)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return nil
		case <-p.clock.After(p.interval):
		}
	}
}

// RunOnce lists the inbound directory in lexical order and dispatches every
// regular, non-hidden file serially. Cancellation is observed between files.
func (p *Poller) RunOnce(ctx context.Context) (ScanStats, error) {
	var stats ScanStats

	entries, err := os.ReadDir(p.dir)
	p.report(err == nil)
	if err != nil {
		return stats, fmt.Errorf("list %s: %w", p.dir, err)
	}

	seenHidden := make(map[string]struct{})
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		stats.Scanned++
		if e.Type().IsRegular() && IsHidden(e.Name()) {
			seenHidden[e.Name()] = struct{}{}
			if _, ok := p.hidden[e.Name()]; !ok {
				p.logger.Debug("skipping hidden request file", "file", e.Name())
			}
			continue
		}
		if !isCandidate(e) {
			continue
		}
		stats.Matched++

		path := filepath.Join(p.dir, e.Name())
		out, err := p.dispatcher.Dispatch(ctx, path)
		switch {
		case err != nil:
			stats.Failed++
			p.logger.Error("request failed, will retry", "file", e.Name(), "error", err)
		case out.Ignored:
			stats.Ignored++
		default:
			stats.Succeeded++
		}
	}
	p.hidden = seenHidden
	return stats, nil
}

func (p *Poller) report(serving bool) {
	if p.reporter != nil {
		p.reporter.SetServing(serving)
	}
}
