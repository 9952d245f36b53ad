package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"watchscout-engine/internal/availability"
	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/events"
	"watchscout-engine/internal/httpapi"
	"watchscout-engine/internal/notify"
	"watchscout-engine/internal/oracle"
	"watchscout-engine/internal/scheduler"
	"watchscout-engine/internal/scrape"
	"watchscout-engine/internal/scrape/util"
	"watchscout-engine/internal/secrets"
	"watchscout-engine/internal/store"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	dataDir := os.Getenv("WATCHSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine instance per data dir. Two overlapping instances would
	// degrade dedup to the persisted fingerprint set only.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("data dir lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance already owns %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if normalized, vr := config.NormalizeAndValidate(cfg); vr.OK() {
		cfg = normalized
		for _, wmsg := range vr.Warnings {
			log.Printf("[config] warning: %s", wmsg)
		}
	} else {
		log.Fatalf("config invalid: %v", vr.Errors)
	}
	cfgVal.Store(cfg)

	db, err := store.Open(filepath.Join(dataDir, "watchscout.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()
	limiter := util.NewDomainLimiter(cfg.DefaultRateLimit())

	apiKey, err := secrets.GetOracleAPIKey(secrets.OracleKeyringAccount(cfg))
	if err != nil {
		log.Fatalf("oracle credentials: %v", err)
	}
	extractor, err := oracle.New(apiKey, oracle.Config{
		Model:               cfg.Oracle.Model,
		MaxTokens:           cfg.Oracle.MaxTokens,
		Temperature:         cfg.Oracle.Temperature,
		ConfidenceThreshold: cfg.Oracle.ConfidenceThreshold,
		MaxMarkupBytes:      cfg.Discovery.MaxMarkupBytes,
	})
	if err != nil {
		log.Fatalf("oracle init: %v", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Email.Enabled {
		pw, err := secrets.GetSMTPPassword(secrets.SMTPKeyringAccount(cfg))
		if err != nil {
			log.Printf("[notify] email disabled: %v", err)
		} else {
			notifier = notify.NewEmail(cfg, pw)
		}
	}

	runDiscovery := func(ctx context.Context, c config.Config) (domain.RunStats, error) {
		orch := &scrape.Orchestrator{
			DB:       db.Pool,
			Cfg:      c,
			Oracle:   extractor,
			Notifier: notifier,
			Limiter:  limiter,
			OnNewListing: func(l domain.Listing) {
				hub.Publish(events.MakeEvent("", events.TypeListingCreated, 1, l))
			},
		}
		return orch.Run(ctx)
	}

	runAvailability := func(ctx context.Context, c config.Config) (domain.AvailabilityStats, error) {
		checker := &availability.Checker{
			DB:      db.Pool,
			Cfg:     c,
			Limiter: limiter,
			OnSold: func(l domain.Listing) {
				hub.Publish(events.MakeEvent("", events.TypeListingSold, 1, l))
			},
		}
		return checker.Run(ctx)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var discoveryStatus atomic.Value
	discoveryStatus.Store(httpapi.DiscoveryStatus{})

	// Discovery cycle.
	go scheduler.Every(rootCtx, cfg.DiscoveryInterval(), "discovery", func(ctx context.Context) error {
		c := cfgVal.Load().(config.Config)

		st := discoveryStatus.Load().(httpapi.DiscoveryStatus)
		if st.Running {
			return nil
		}
		st.Running = true
		st.LastRunAt = time.Now().Format(time.RFC3339)
		discoveryStatus.Store(st)

		runCtx, cancel := context.WithTimeout(ctx, c.DiscoveryRunTimeout())
		defer cancel()
		stats, err := runDiscovery(runCtx, c)

		now := time.Now().Format(time.RFC3339)
		next := discoveryStatus.Load().(httpapi.DiscoveryStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastSaved = stats.ListingsSaved
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		discoveryStatus.Store(next)

		hub.Publish(events.MakeEvent("", events.TypeRunFinished, 1, stats))
		return err
	})

	// Availability cycle, offset from discovery.
	go scheduler.EveryAt(rootCtx, cfg.AvailabilityInterval(), cfg.AvailabilityOffset(), "availability", func(ctx context.Context) error {
		c := cfgVal.Load().(config.Config)
		runCtx, cancel := context.WithTimeout(ctx, c.AvailabilityRunTimeout())
		defer cancel()
		_, err := runAvailability(runCtx, c)
		return err
	})

	mux := httpapi.NewMux(httpapi.Deps{
		DB:              db.Pool,
		Hub:             hub,
		CfgVal:          &cfgVal,
		DiscoveryStatus: &discoveryStatus,
		UserCfgPath:     userCfgPath,
		LoadCfg:         loadCfg,
		RunDiscovery:    runDiscovery,
	})

	port := cfg.App.Port
	if port <= 0 {
		port = 38575
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (data=%s)", addr, dataDir)

	srv := &http.Server{
		Handler: httpapi.Chain(mux,
			httpapi.RequestID,
			httpapi.AccessLog,
			httpapi.Recover,
			httpapi.Cors,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
