package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/resolute-ai/rampart/internal/api"
	"github.com/resolute-ai/rampart/internal/detect"
	"github.com/resolute-ai/rampart/internal/enforce"
	"github.com/resolute-ai/rampart/internal/provider"
	"github.com/resolute-ai/rampart/internal/rules"
	"github.com/resolute-ai/rampart/internal/storage"
	"github.com/resolute-ai/rampart/internal/store"
	"github.com/resolute-ai/rampart/internal/trs"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("RAMPART_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("RAMPART_HTTP_PORT", "8080")
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	postgresDSN := os.Getenv("POSTGRES_DSN")
	rulesPath := os.Getenv("RAMPART_RULES_PATH")
	cacheTTL := envOrDefaultInt("RAMPART_AUTH_CACHE_TTL_S", 30)

	defaults := enforce.Switches{
		FrictionEnabled:     envOrDefaultBool("RAMPART_FRICTION_ENABLED", true),
		PIIRedactionEnabled: envOrDefaultBool("RAMPART_PII_REDACTION_ENABLED", true),
		EscalationEnabled:   envOrDefaultBool("RAMPART_ESCALATION_ENABLED", true),
	}

	logger.Info("starting rampart server",
		zap.String("http_port", httpPort),
		zap.Bool("friction_enabled", defaults.FrictionEnabled),
		zap.Bool("pii_redaction_enabled", defaults.PIIRedactionEnabled),
		zap.Bool("escalation_enabled", defaults.EscalationEnabled),
	)

	// Detection rules — built-in tables, plus an optional YAML overlay
	var detectCfg detect.Config
	var promptOverrides map[detect.Topic]string
	if rulesPath != "" {
		rulesFile, err := rules.Load(rulesPath)
		if err != nil {
			logger.Fatal("failed to load rules file", zap.String("path", rulesPath), zap.Error(err))
		}
		detectCfg = rulesFile.DetectConfig()
		promptOverrides = rulesFile.FrictionPrompts()
		logger.Info("rules file loaded", zap.String("path", rulesPath))
	}

	bank, err := detect.NewBank(detectCfg)
	if err != nil {
		logger.Fatal("failed to compile detection patterns", zap.Error(err))
	}

	// Provider — chat completions endpoint, or the static fallback
	var prov provider.Provider
	if endpoint := os.Getenv("PROVIDER_ENDPOINT"); endpoint != "" {
		chatProv, err := provider.NewChatProvider(provider.ChatConfig{
			Endpoint: endpoint,
			APIKey:   os.Getenv("PROVIDER_API_KEY"),
			Model:    envOrDefault("PROVIDER_MODEL", "gpt-4o-mini"),
			Logger:   logger,
		})
		if err != nil {
			logger.Fatal("failed to create chat provider", zap.Error(err))
		}
		prov = chatProv
		logger.Info("chat provider enabled", zap.String("endpoint", endpoint))
	} else {
		prov = provider.NewStaticProvider()
		logger.Info("no PROVIDER_ENDPOINT set, using static provider")
	}

	enforcer, err := enforce.New(enforce.Config{
		Bank:     bank,
		Provider: prov,
		Prompts:  promptOverrides,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to create enforcer", zap.Error(err))
	}

	// Ledger — ClickHouse or LogWriter fallback
	var writer storage.LedgerWriter
	if clickhouseDSN != "" {
		chWriter, err := storage.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = storage.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = storage.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Postgres pool (required for the HTTP API)
	if postgresDSN == "" {
		logger.Fatal("POSTGRES_DSN is required")
	}
	db, err := sql.Open("pgx", postgresDSN)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(context.Background()); err != nil {
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}
	pgStore := store.NewStore(db)
	logger.Info("postgres connected")

	deps := &api.Dependencies{
		Store:    pgStore,
		Enforcer: enforcer,
		Engine:   trs.NewEngine(nil),
		Writer:   writer,
		Defaults: defaults,
		Logger:   logger,
		CacheTTL: time.Duration(cacheTTL) * time.Second,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("rampart server stopped")
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}
