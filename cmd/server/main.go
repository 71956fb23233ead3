package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	audithandler "splitledger/internal/audit/handler"
	auditservice "splitledger/internal/audit/service"
	"splitledger/internal/audit/store/attempt"
	"splitledger/internal/auth/device"
	authhandler "splitledger/internal/auth/handler"
	"splitledger/internal/auth/mfa"
	authservice "splitledger/internal/auth/service"
	"splitledger/internal/auth/store/credential"
	"splitledger/internal/auth/store/revocation"
	"splitledger/internal/auth/token"
	expensehandler "splitledger/internal/expense/handler"
	expenseservice "splitledger/internal/expense/service"
	expensestore "splitledger/internal/expense/store"
	"splitledger/internal/platform/config"
	"splitledger/internal/platform/httpserver"
	"splitledger/internal/platform/kafka/producer"
	"splitledger/internal/platform/logger"
	"splitledger/internal/platform/metrics"
	"splitledger/internal/platform/postgres"
	"splitledger/internal/platform/redis"
)

// main wires stores, services, and handlers, then runs the HTTP server until
// a termination signal. Business logic lives in the internal packages; this
// file only chooses implementations based on what is configured.
func main() {
	if err := run(); err != nil {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tokens, err := token.New(cfg.JWTSigningKey, cfg.TokenIssuer,
		token.WithTTLs(cfg.SessionTTL, cfg.RememberTTL))
	if err != nil {
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	mirror, err := producer.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return err
	}
	if mirror != nil {
		defer mirror.Close()
	}

	m := metrics.New()

	var creds credential.Store
	var attempts attempt.Store
	var ledgerStore expensestore.Store
	if pool != nil {
		creds = credential.NewPostgres(pool)
		attempts = attempt.NewPostgres(pool)
		ledgerStore = expensestore.NewPostgres(pool)
		log.Info("using postgres-backed stores")
	} else {
		creds = credential.NewInMemoryStore()
		attempts = attempt.NewInMemoryStore()
		ledgerStore = expensestore.NewInMemoryStore()
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
	}

	// Revocation flags prefer Redis for its native TTL expiry; a lone
	// Postgres deployment still works, and memory covers dev mode.
	var revocations revocation.Store
	switch {
	case redisClient != nil:
		revocations = revocation.NewRedisStore(redisClient.Client)
	case cfg.PostgresDSN != "":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		revocations = revocation.NewPostgres(db)
	default:
		revocations = revocation.NewInMemoryStore()
	}

	recorderOpts := []auditservice.RecorderOption{
		auditservice.WithWriteTimeout(cfg.AuditWriteTimeout),
		auditservice.WithMetrics(m),
	}
	if mirror != nil {
		recorderOpts = append(recorderOpts, auditservice.WithProducer(mirror))
	}
	recorder := auditservice.NewRecorder(attempts, log, recorderOpts...)
	defer recorder.Wait()

	mfaSvc := mfa.New(creds, cfg.TokenIssuer, mfa.WithMetrics(m))
	authSvc := authservice.New(creds, tokens, mfaSvc, revocations, log,
		authservice.WithMetrics(m),
		authservice.WithDeviceService(device.NewService(nil)),
		authservice.WithRecorder(recorder),
		authservice.WithSessionAuditor(attempts),
		authservice.WithLoginLogging(cfg.LogLogins),
	)
	historyQuery := auditservice.NewQuery(attempts)
	ledger := expenseservice.New(ledgerStore)

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	authhandler.New(authSvc, mfaSvc, tokens, revocations, log).Register(router)
	audithandler.New(historyQuery, tokens, revocations, log).Register(router)
	expensehandler.New(ledger, tokens, revocations, log).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting splitledger", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
