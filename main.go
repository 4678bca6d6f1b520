// Command chatlogd ingests Twitch chat for one channel into an append-only
// log and converts that log into structured records.
// It:
//   - Loads configuration and initializes structured logging.
//   - run: connects to Twitch IRC, answers liveness probes, and appends every
//     received chunk to the chat log; exposes /healthz, /readyz, /status, and
//     /metrics while running.
//   - parse: reads an existing chat log and prints structured messages.
//   - import: reads an existing chat log and stores messages in Postgres.
//   - migrate: applies database migrations.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/subculture-collective/chatlogd/config"
	"github.com/subculture-collective/chatlogd/db"
	"github.com/subculture-collective/chatlogd/emotes"
	"github.com/subculture-collective/chatlogd/irc"
	"github.com/subculture-collective/chatlogd/logfile"
	"github.com/subculture-collective/chatlogd/parse"
	"github.com/subculture-collective/chatlogd/server"
	"github.com/subculture-collective/chatlogd/store"
	"github.com/subculture-collective/chatlogd/telemetry"
)

var version = "1.0.0"

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")
	setupLogging()

	root := &cobra.Command{
		Use:           "chatlogd",
		Short:         "Twitch chat ingest and parse service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd())
	root.AddCommand(parseCmd())
	root.AddCommand(importCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", slog.Any("err", err))
		os.Exit(1)
	}
}

// setupLogging configures the default slog handler from LOG_LEVEL and
// LOG_FORMAT (text | json). Defaults: level=info, format=text.
func setupLogging() {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

// loadFilter builds the optional emote substitution filter from config.
func loadFilter(cfg *config.Config) irc.Filter {
	if cfg.EmoteMapPath == "" {
		return nil
	}
	tbl, err := emotes.LoadTable(cfg.EmoteMapPath)
	if err != nil {
		slog.Warn("emote map not loaded; substitution disabled", slog.Any("err", err))
		return nil
	}
	slog.Info("emote substitution enabled", slog.Int("entries", tbl.Len()))
	return tbl.Apply
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Ingest chat into the append-only log (with health/metrics endpoints)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateIngestReady(); err != nil {
				return err
			}

			telemetry.Init()
			shutdown, err := telemetry.InitTracing("chatlogd", version)
			if err != nil {
				return fmt.Errorf("tracing initialization failed: %w", err)
			}
			defer shutdown()

			database, err := db.Connect()
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer func() {
				if err := database.Close(); err != nil {
					slog.Error("failed to close database", slog.Any("err", err))
				}
			}()
			if err := db.RunMigrations(database); err != nil {
				slog.Warn("versioned migrations failed, falling back to embedded SQL", slog.Any("err", err))
				if err := db.Migrate(cmd.Context(), database); err != nil {
					return fmt.Errorf("failed to migrate db: %w", err)
				}
			}

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			sink, err := logfile.OpenFileSink(cfg.ChatLogPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := sink.Close(); err != nil {
					slog.Error("failed to close chat log", slog.Any("err", err))
				}
			}()

			// Root context with graceful shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// HTTP server (health/status/metrics)
			addr := os.Getenv("HTTP_ADDR")
			if addr == "" {
				addr = ":8080"
			}
			go func() {
				if err := server.Start(ctx, database, cfg, addr); err != nil {
					slog.Error("http server exited with error", slog.Any("err", err))
				}
			}()

			// Ingest until canceled or the transport dies. Reconnect policy is
			// the supervisor's job, not this process's.
			err = irc.Record(ctx, cfg, sink, loadFilter(cfg))
			if err != nil && ctx.Err() == nil {
				return err
			}
			slog.Info("shutting down")
			return nil
		},
	}
}

func parseCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse the chat log and print structured messages as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logPath == "" {
				logPath = cfg.ChatLogPath
			}
			telemetry.Init()

			enc := json.NewEncoder(os.Stdout)
			count := 0
			for msg := range parse.ParseLog(logPath) {
				if err := enc.Encode(msg); err != nil {
					return err
				}
				count++
			}
			slog.Info("parse finished", slog.String("path", logPath), slog.Int("messages", count))
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "chat log path (default: CHAT_LOG_PATH)")
	return cmd
}

func importCmd() *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse the chat log and store messages in Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if logPath == "" {
				logPath = cfg.ChatLogPath
			}
			telemetry.Init()
			shutdown, err := telemetry.InitTracing("chatlogd", version)
			if err != nil {
				return fmt.Errorf("tracing initialization failed: %w", err)
			}
			defer shutdown()

			database, err := db.Connect()
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer func() {
				if err := database.Close(); err != nil {
					slog.Error("failed to close database", slog.Any("err", err))
				}
			}()
			if err := db.RunMigrations(database); err != nil {
				slog.Warn("versioned migrations failed, falling back to embedded SQL", slog.Any("err", err))
				if err := db.Migrate(cmd.Context(), database); err != nil {
					return fmt.Errorf("failed to migrate db: %w", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			n, err := store.ImportLog(ctx, database, logPath)
			if err != nil {
				return err
			}
			slog.Info("import finished", slog.Int("rows", n))
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log", "", "chat log path (default: CHAT_LOG_PATH)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.Connect()
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer func() {
				if err := database.Close(); err != nil {
					slog.Error("failed to close database", slog.Any("err", err))
				}
			}()
			if err := db.RunMigrations(database); err != nil {
				slog.Warn("versioned migrations failed, falling back to embedded SQL", slog.Any("err", err))
				return db.Migrate(context.Background(), database)
			}
			return nil
		},
	}
}
