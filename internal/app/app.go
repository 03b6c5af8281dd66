// Package app parses server configuration and starts the encounter runtime.
package app

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/hearthvale/initiative/internal/encounter/op"
	"github.com/hearthvale/initiative/internal/encounter/storage/sqlite"
	"github.com/hearthvale/initiative/internal/platform/config"
	"github.com/hearthvale/initiative/internal/platform/otel"
	"github.com/hearthvale/initiative/internal/platform/token"
	"github.com/hearthvale/initiative/internal/web"
)

const serviceName = "initiative"

const otelShutdownTimeout = 5 * time.Second

// Config holds server configuration.
type Config struct {
	Port   int    `env:"INITIATIVE_PORT" envDefault:"8080"`
	Addr   string `env:"INITIATIVE_ADDR"`
	DBPath string `env:"INITIATIVE_DB_PATH" envDefault:"initiative.db"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The API server port")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The API server listen address (overrides -port)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the sqlite database file")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr resolves the configured listen address.
func (c Config) ListenAddr() string {
	if c.Addr != "" {
		return c.Addr
	}
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// Run starts the encounter API service and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	tokens, err := token.LoadConfigFromEnv(time.Now)
	if err != nil {
		return fmt.Errorf("load token config: %w", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	handler := web.NewHandler(op.NewExecutor(store), tokens)
	server, err := web.NewServer(web.Config{Addr: cfg.ListenAddr()}, handler)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}
	return server.ListenAndServe(ctx)
}
