package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/arbscan/arbscan/internal/browser"
	"github.com/arbscan/arbscan/internal/config"
	"github.com/arbscan/arbscan/internal/control"
	"github.com/arbscan/arbscan/internal/dedup"
	"github.com/arbscan/arbscan/internal/journal"
	"github.com/arbscan/arbscan/internal/logger"
	"github.com/arbscan/arbscan/internal/metrics"
	"github.com/arbscan/arbscan/internal/resolve"
	"github.com/arbscan/arbscan/internal/route"
	"github.com/arbscan/arbscan/internal/scraper"
	"github.com/arbscan/arbscan/internal/telegram"
	"github.com/arbscan/arbscan/internal/worker"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	m := metrics.New()

	var jour *journal.Journal
	if cfg.Journal.Enabled {
		jour, err = journal.Open(cfg.Journal.DBPath, cfg.Journal.MaxRows)
		if err != nil {
			logger.Fatal("Failed to open delivery journal: %v", err)
		}
		defer func() {
			if err := jour.Close(); err != nil {
				logger.Error("Failed to close journal: %v", err)
			}
		}()
	}

	store := newDedupStore(cfg)
	router := route.New(routingRules(cfg), cfg.Routing.CategoryDefault, cfg.Telegram.ChatID)
	sender := telegram.NewSender(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	ctrl := control.New()

	sourceHost, err := hostOf(cfg.Source.BaseURL)
	if err != nil {
		logger.Fatal("Failed to parse source.base_url: %v", err)
	}

	sessions := newSessionFactory(cfg, sourceHost)

	workerCfg := worker.Config{
		Email:        cfg.Source.Email,
		Password:     cfg.Source.Password,
		ScanInterval: cfg.Scan.Interval,
		RestartDelay: cfg.Scan.RestartDelay,
		Bankroll:     decimal.NewFromFloat(cfg.Stake.Bankroll),
		FreshMarkers: cfg.Scan.FreshMarkers,
		RequireFresh: cfg.Scan.RequireFresh,
	}
	// A nil *Journal inside a non-nil interface would dodge the worker's nil
	// check, so only pass it when journaling is on.
	var workerJournal worker.Journal
	if jour != nil {
		workerJournal = jour
	}
	w := worker.New(workerCfg, sessions, store, router, sender, ctrl, m, workerJournal)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(ctx)
	})

	if ttl, ok := store.(*dedup.TTLStore); ok {
		g.Go(func() error {
			ttl.RunSweeper(ctx, cfg.Dedup.SweepInterval)
			return nil
		})
	}

	if cfg.Telegram.ControlEnabled {
		bot, err := control.NewBot(cfg.Telegram.BotToken, ctrl, func() string {
			return statusReport(ctrl, store, jour)
		})
		if err != nil {
			logger.Fatal("Failed to start control bot: %v", err)
		}
		g.Go(func() error {
			return bot.Run(ctx)
		})
	}

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: m.Handler()}
		g.Go(func() error {
			logger.Info("Metrics listening on %s", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("Starting scan loop (interval: %v, dedup: %s)", cfg.Scan.Interval, cfg.Dedup.Mode)
	if err := g.Wait(); err != nil {
		logger.Fatal("Service failed: %v", err)
	}
	logger.Info("Shutdown complete")
}

func newDedupStore(cfg *config.Config) dedup.Store {
	if cfg.Dedup.Mode == "cooldown" {
		return dedup.NewCooldownStore(cfg.Dedup.Cooldown, cfg.Dedup.MaxEntries)
	}
	return dedup.NewTTLStore(cfg.Dedup.Retention)
}

func routingRules(cfg *config.Config) []route.Rule {
	rules := make([]route.Rule, 0, len(cfg.Routing.Rules))
	for _, r := range cfg.Routing.Rules {
		rules = append(rules, route.Rule{Keyword: r.Keyword, Channel: r.ChatID})
	}
	return rules
}

// newSessionFactory launches a fresh browser per session and wires the
// scraper and resolver onto its pages.
func newSessionFactory(cfg *config.Config, sourceHost string) worker.SessionFactory {
	return func(ctx context.Context) (*worker.Session, error) {
		engine := browser.NewPlaywright(browser.Options{
			Headless:       cfg.Source.Headless,
			NavTimeout:     cfg.Scan.NavTimeout,
			ResolveTimeout: cfg.Scan.ResolveTimeout,
		})
		if err := engine.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start browser: %w", err)
		}

		res := resolve.New(engine.ResolverPage(), sourceHost, cfg.Mirrors, cfg.Scan.ResolveTimeout)
		if err := engine.RouteResolver(res.HandleRequest); err != nil {
			engine.Close()
			return nil, fmt.Errorf("failed to install route handler: %w", err)
		}

		return &worker.Session{
			Source:   scraper.New(engine.FeedPage(), cfg.Source.BaseURL, cfg.Scan.NavTimeout),
			Resolver: res,
			Close:    engine.Close,
		}, nil
	}
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return host, nil
}

func statusReport(ctrl *control.Control, store dedup.Store, jour *journal.Journal) string {
	state := "running"
	if ctrl.IsPaused() {
		state = "paused"
	}
	report := fmt.Sprintf("State: %s\nDedup entries: %d", state, store.Size())
	if jour != nil {
		if n, err := jour.CountSince(time.Now().Add(-24 * time.Hour)); err == nil {
			report += fmt.Sprintf("\nDeliveries (24h): %d", n)
		}
		if recent, err := jour.Recent(3); err == nil && len(recent) > 0 {
			report += "\nLast alerts:"
			for _, d := range recent {
				report += fmt.Sprintf("\n  %s %s -> %s", d.SentAt.Format("15:04:05"), d.OpportunityID, d.Channel)
			}
		}
	}
	return report
}
