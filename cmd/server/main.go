package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"

	emailPkg "partyplanner/internal/adapters/email"
	web "partyplanner/internal/adapters/http"
	"partyplanner/internal/adapters/http/middleware"
	"partyplanner/internal/adapters/http/perf"
	"partyplanner/internal/adapters/mq"
	"partyplanner/internal/adapters/storage"
	auditStore "partyplanner/internal/adapters/storage/audit"
	bookingStore "partyplanner/internal/adapters/storage/booking"
	customerStore "partyplanner/internal/adapters/storage/customer"
	eventStore "partyplanner/internal/adapters/storage/event"
	outboxStore "partyplanner/internal/adapters/storage/outbox"
	scheduleStore "partyplanner/internal/adapters/storage/schedule"
	"partyplanner/internal/application/orchestrators"
	"partyplanner/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// publisher is a booking publisher that holds a broker connection.
type publisher interface {
	orchestrators.BookingPublisher
	Close() error
}

func main() {
	configPath := flag.String("config", "partyplanner.yaml", "optional YAML config file")
	envPath := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	loc, _ := cfg.Location()

	// WAL mode, foreign keys and busy timeout on every pooled connection
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(8)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)
	stores := &web.Stores{
		CustomerStore: customerStore.NewSQLiteStore(timedDB),
		EventStore:    eventStore.NewSQLiteStore(timedDB),
		ScheduleStore: scheduleStore.NewSQLiteStore(timedDB),
		BookingStore:  bookingStore.NewSQLiteStore(timedDB),
		AuditStore:    auditStore.NewSQLiteStore(timedDB),
		OutboxStore:   outboxStore.NewSQLiteStore(timedDB),
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			log.Println("WARNING: PARTY_RESEND_KEY is not set, customer emails are DISABLED in production")
		} else {
			log.Println("Email sender configured (noop, set PARTY_RESEND_KEY for real delivery)")
		}
	}

	pub := newPublisher(cfg)
	defer pub.Close()

	// Failed deliveries are parked in the outbox and replayed by the retry job.
	queue := &orchestrators.DeliveryQueue{Store: stores.OutboxStore, Now: time.Now, GenerateID: uuid.NewString}
	queuedSender := orchestrators.QueuedSender{Sender: sender, Queue: queue}
	queuedPub := orchestrators.QueuedPublisher{Publisher: pub, Queue: queue}

	notifier := &orchestrators.Notifier{Sender: queuedSender, Schedules: stores.ScheduleStore, Location: loc}

	c := cron.New(cron.WithLocation(loc))
	if cfg.ReminderCron != "" {
		job := orchestrators.ReminderJob(orchestrators.SendRemindersDeps{
			Bookings: stores.BookingStore,
			Sender:   queuedSender,
			Location: loc,
		}, time.Now, 5*time.Minute)
		if _, err := c.AddFunc(cfg.ReminderCron, job); err != nil {
			log.Fatalf("invalid reminder cron %q: %v", cfg.ReminderCron, err)
		}
		log.Printf("Reminder job scheduled (%s %s)", cfg.ReminderCron, loc)
	}
	if cfg.OutboxRetryCron != "" {
		job := orchestrators.OutboxRetryJob(orchestrators.OutboxRetryDeps{
			Store:     stores.OutboxStore,
			Sender:    sender,
			Publisher: pub,
			Now:       time.Now,
		}, time.Minute)
		if _, err := c.AddFunc(cfg.OutboxRetryCron, job); err != nil {
			log.Fatalf("invalid outbox retry cron %q: %v", cfg.OutboxRetryCron, err)
		}
		log.Printf("Outbox retry job scheduled (%s)", cfg.OutboxRetryCron)
	}
	c.Start()
	defer c.Stop()

	handler := web.NewMux(stores, web.Options{
		Admin:         orchestrators.AdminCredentials{Email: cfg.AdminEmail, PasswordHash: cfg.AdminPasswordHash},
		Tokens:        middleware.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		Location:      loc,
		Notifier:      notifier,
		Publisher:     queuedPub,
		RateLimit:     cfg.RateLimit,
		SlowRequestMs: cfg.SlowRequestMs,
	}, collector)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err.Error())
		}
	}()

	log.Printf("Party planner %s starting on %s (env=%s, tz=%s)", version, cfg.Listen, cfg.Env, loc)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server stopped")
}

// newPublisher connects to the broker, falling back to the noop publisher
// outside production when none is configured or reachable.
func newPublisher(cfg *config.Config) publisher {
	if cfg.BrokerURL == "" {
		log.Println("Lifecycle publisher disabled (set PARTY_BROKER_URL to enable)")
		return mq.NoopPublisher{}
	}
	p, err := mq.NewPublisher(cfg.BrokerURL, cfg.BrokerExchange)
	if err != nil {
		if cfg.IsProduction() {
			log.Fatalf("failed to connect to broker: %v", err)
		}
		log.Printf("WARNING: broker unreachable, lifecycle events are dropped: %v", err)
		return mq.NoopPublisher{}
	}
	log.Printf("Lifecycle publisher connected (exchange=%s)", cfg.BrokerExchange)
	return p
}
