// Package worker runs the scan/dedup/resolve/deliver pipeline under a
// session supervisor that restarts the browser session on failure.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arbscan/arbscan/internal/control"
	"github.com/arbscan/arbscan/internal/dedup"
	"github.com/arbscan/arbscan/internal/format"
	"github.com/arbscan/arbscan/internal/logger"
	"github.com/arbscan/arbscan/internal/metrics"
	"github.com/arbscan/arbscan/internal/models"
	"github.com/arbscan/arbscan/internal/route"
	"github.com/arbscan/arbscan/internal/stake"
)

// Source produces opportunities from the feed site.
type Source interface {
	Login(email, password string) error
	OpenFeed() error
	Scan() []models.Opportunity
}

// Resolver turns a redirect reference into a final destination URL.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, bool)
}

// Sender pushes one alert to a destination channel. A non-nil error means
// the alert was definitively not delivered.
type Sender interface {
	Send(ctx context.Context, chatID, text string) error
}

// Journal records delivered alerts. May be nil when journaling is disabled.
type Journal interface {
	Record(d models.Delivery) error
}

// Session bundles the per-browser-session collaborators. Close tears the
// underlying session down.
type Session struct {
	Source   Source
	Resolver Resolver
	Close    func()
}

// SessionFactory builds a fresh session: a launched browser with the feed
// and resolver pages wired up.
type SessionFactory func(ctx context.Context) (*Session, error)

// Config carries the worker's tunables.
type Config struct {
	Email        string
	Password     string
	ScanInterval time.Duration
	RestartDelay time.Duration
	Bankroll     decimal.Decimal
	FreshMarkers []string
	RequireFresh bool
}

// Session loop sentinels. Both mean "leave the session cleanly", not
// failure.
var (
	errRestart = errors.New("restart requested")
	errPaused  = errors.New("worker paused")
)

const pauseIdle = time.Second

// Worker supervises browser sessions and drives the per-pass pipeline.
type Worker struct {
	cfg      Config
	sessions SessionFactory
	store    dedup.Store
	router   *route.Router
	sender   Sender
	control  *control.Control
	metrics  *metrics.Metrics
	journal  Journal

	sleep func(ctx context.Context, d time.Duration) bool
}

// New creates a Worker. journal may be nil; everything else is required.
func New(cfg Config, sessions SessionFactory, store dedup.Store, router *route.Router,
	sender Sender, ctrl *control.Control, m *metrics.Metrics, j Journal) *Worker {
	return &Worker{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		router:   router,
		sender:   sender,
		control:  ctrl,
		metrics:  m,
		journal:  j,
		sleep:    sleepCtx,
	}
}

// Run loops forever, starting a fresh session after every failure. It
// returns only when ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if w.control.IsPaused() {
			w.sleep(ctx, pauseIdle)
			continue
		}

		err := w.runSession(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, errRestart):
			logger.Info("Restart requested, starting new session")
			w.metrics.SessionRestarts.Inc()
		case errors.Is(err, errPaused):
			logger.Info("Paused, session closed")
		default:
			logger.Error("Session failed: %v", err)
			w.metrics.SessionRestarts.Inc()
			w.sleep(ctx, w.cfg.RestartDelay)
		}
	}
}

func (w *Worker) runSession(ctx context.Context) error {
	sess, err := w.sessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.Close()

	if err := sess.Source.Login(w.cfg.Email, w.cfg.Password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := sess.Source.OpenFeed(); err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if w.control.ConsumeRestart() {
			return errRestart
		}
		if w.control.IsPaused() {
			return errPaused
		}

		ops := sess.Source.Scan()
		for i := range ops {
			w.metrics.EntriesSeen.Inc()
			w.processEntry(ctx, sess.Resolver, ops[i])
		}
		w.metrics.ScanPasses.Inc()
		w.metrics.DedupSize.Set(float64(w.store.Size()))

		if !w.sleep(ctx, w.cfg.ScanInterval) {
			return ctx.Err()
		}
	}
}

// processEntry handles one opportunity end to end. A panic here is contained
// to the entry: the rest of the pass continues.
func (w *Worker) processEntry(ctx context.Context, res Resolver, op models.Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Entry %s panicked: %v", op.ID, r)
		}
	}()

	if err := op.Validate(); err != nil {
		logger.Debug("Skipping invalid entry: %v", err)
		return
	}
	if w.cfg.RequireFresh && !isFresh(op.UpdatedAt, w.cfg.FreshMarkers) {
		logger.Debug("Skipping stale entry %s (updated %q)", op.ID, op.UpdatedAt)
		return
	}
	if !w.store.Admit(op.ID) {
		w.metrics.DedupRejected.Inc()
		return
	}

	odds := make([]string, len(op.Legs))
	for i, leg := range op.Legs {
		odds[i] = leg.Odds
	}
	stakes, ok := stake.Allocate(odds, w.cfg.Bankroll)
	if !ok {
		stakes = nil
	}

	for i := range op.Legs {
		if op.Legs[i].BetURL == "" {
			continue
		}
		resolved, ok := res.Resolve(ctx, op.Legs[i].BetURL)
		if ok {
			op.Legs[i].ResolvedURL = resolved
			w.metrics.Resolutions.WithLabelValues("resolved").Inc()
		} else {
			w.metrics.Resolutions.WithLabelValues("timeout").Inc()
		}
	}

	channel := w.router.Select(op.Legs)
	if channel == route.NoChannel {
		logger.Warn("No destination for entry %s, dropping", op.ID)
		w.metrics.Deliveries.WithLabelValues("unrouted").Inc()
		return
	}

	if err := w.sender.Send(ctx, channel, format.Message(op, stakes)); err != nil {
		logger.Warn("Delivery failed for entry %s: %v", op.ID, err)
		w.metrics.Deliveries.WithLabelValues("failed").Inc()
		return
	}
	w.metrics.Deliveries.WithLabelValues("sent").Inc()

	if w.journal != nil {
		err := w.journal.Record(models.Delivery{
			OpportunityID: op.ID,
			Channel:       channel,
			Sport:         op.Sport,
			Edge:          op.Percent,
			SentAt:        time.Now(),
		})
		if err != nil {
			logger.Warn("Failed to journal delivery %s: %v", op.ID, err)
		}
	}
}

// isFresh reports whether the feed's age text contains one of the freshness
// markers, for example "sec".
func isFresh(updatedAt string, markers []string) bool {
	if updatedAt == "" {
		return false
	}
	lowered := strings.ToLower(updatedAt)
	for _, m := range markers {
		if m != "" && strings.Contains(lowered, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
