// Habla is the backend for a Spanish conversation tutor. It proxies Spanish
// news, mints realtime voice-session tokens, tracks practice sessions and
// scores read-aloud pronunciation.
//
// Usage:
//
//	habla [flags]
//	habla --config /path/to/habla.yaml
//
// @title       habla API
// @version     1.0
// @description Backend for a Spanish conversation tutor: news proxy, realtime session tokens, practice sessions and pronunciation coaching.
// @BasePath    /
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nadzzz/habla/internal/cache"
	"github.com/nadzzz/habla/internal/coach"
	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/health"
	"github.com/nadzzz/habla/internal/news"
	"github.com/nadzzz/habla/internal/persona"
	"github.com/nadzzz/habla/internal/ratelimit"
	"github.com/nadzzz/habla/internal/realtime"
	"github.com/nadzzz/habla/internal/session"
	speechopenai "github.com/nadzzz/habla/internal/speech/openai"
	"github.com/nadzzz/habla/internal/transport"
	grpctransport "github.com/nadzzz/habla/internal/transport/grpc"
	httptransport "github.com/nadzzz/habla/internal/transport/http"
	"github.com/nadzzz/habla/internal/tts"
	"github.com/nadzzz/habla/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/habla.yaml)")
	envFile := flag.String("env-file", ".env", "dotenv file to load before reading config")
	flag.Parse()

	if *showVersion {
		fmt.Printf("habla %s\n", version)
		os.Exit(0)
	}

	// A missing .env is normal outside local development.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("habla starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("habla failed", "error", err)
		os.Exit(1)
	}
	slog.Info("habla stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Shared redis client, only when a backend needs it.
	var rdb *redis.Client
	if cfg.Cache.Backend == "redis" || cfg.Sessions.Backend == "redis" {
		var err error
		rdb, err = cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		slog.Info("connected to redis")
	}

	// Article content cache.
	var articleCache cache.Cache
	switch cfg.Cache.Backend {
	case "memory":
		mem := cache.NewMemory()
		go mem.RunSweeper(ctx, time.Minute)
		articleCache = mem
	case "redis":
		articleCache = cache.NewRedis(rdb)
	default:
		articleCache = cache.Nop{}
	}
	slog.Info("article cache", "backend", cfg.Cache.Backend, "ttl", cfg.Cache.TTL)

	// Session store.
	var store session.Store
	switch cfg.Sessions.Backend {
	case "redis":
		store = session.NewRedisStore(rdb, cfg.Sessions.TTL)
	default:
		mem := session.NewMemoryStore(cfg.Sessions.TTL)
		go mem.RunSweeper(ctx, time.Minute)
		store = mem
	}
	slog.Info("session store", "backend", cfg.Sessions.Backend, "ttl", cfg.Sessions.TTL)

	newsClient := news.New(cfg.News, articleCache, cfg.Cache.TTL)
	issuer := realtime.New(cfg.Realtime)
	slog.Info("realtime sessions", "model", issuer.Model(), "voice", cfg.Realtime.Voice)

	personas, err := persona.New(cfg.Personas)
	if err != nil {
		return err
	}

	sessions := session.NewManager(store, issuer, newsClient, personas)

	// Pronunciation coaching.
	speechBackend := speechopenai.New(cfg.Coach)
	var synthesizer tts.Synthesizer
	if cfg.TTS.Enabled {
		synthesizer = piper.New(cfg.TTS.Piper)
		defer synthesizer.Close()
		slog.Info("using Piper TTS", "endpoint", cfg.TTS.Piper.Endpoint)
	}
	tutor := coach.New(speechBackend, speechBackend, synthesizer, cfg.Coach.Language)

	limiter := ratelimit.New(ratelimit.PerMinute(cfg.RateLimit.TokensPerMinute), cfg.RateLimit.Burst)
	if err := limiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		return fmt.Errorf("rate_limit.trusted_proxies: %w", err)
	}
	go limiter.Run(ctx, 3*time.Minute)

	// Initialize enabled transports.
	var transports []transport.Transport
	var grpcT *grpctransport.Transport

	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, httptransport.Services{
			News:     newsClient,
			Tokens:   issuer,
			Personas: personas,
			Sessions: sessions,
			Coach:    tutor,
			Limiter:  limiter,
		}))
	}
	if cfg.Transports.GRPC.Enabled {
		grpcT = grpctransport.New(cfg.Transports.GRPC.Port)
		transports = append(transports, grpcT)
	}

	if len(transports) == 0 {
		return fmt.Errorf("no transports enabled, enable at least one in config")
	}

	// Start health check server.
	healthServer := health.New(cfg.Server.HealthPort)
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	// Start all transports.
	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	// Mark as ready once all transports are started.
	healthServer.SetReady(true)
	if grpcT != nil {
		grpcT.SetServing(true)
	}
	slog.Info("habla ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	healthServer.SetReady(false)

	// Close all transports gracefully.
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	return nil
}
