package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/barback/internal/checkpoint"
	"github.com/ziadkadry99/barback/internal/dialogue"
	"github.com/ziadkadry99/barback/internal/server"
	"github.com/ziadkadry99/barback/internal/session"
)

var (
	serverPort        int
	serverAllowOrigin bool
)

const pruneInterval = time.Hour

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the bartender HTTP and WebSocket server",
	Long:  `Starts the barback server with the chat REST API, the /ws/chat WebSocket endpoint and the read-only drink catalog API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		engine, err := a.engine()
		if err != nil {
			return err
		}

		store, err := checkpoint.New(cfg.Checkpoint, a.db)
		if err != nil {
			return fmt.Errorf("creating checkpoint store: %w", err)
		}
		defer store.Close()

		switch s := store.(type) {
		case *checkpoint.RedisStore:
			if err := s.Ping(ctx); err != nil {
				return fmt.Errorf("connecting to redis at %s: %w", cfg.Checkpoint.RedisAddr, err)
			}
		case *checkpoint.SQLiteStore:
			go pruneLoop(ctx, s, logger)
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}
		srv := server.New(server.Config{
			Port:           port,
			AllowAll:       cfg.Server.AllowAllOrigins || serverAllowOrigin,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, session.NewService(engine, store, logger), a.catalog, logger)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("shutdown", "error", err)
			}
		}()

		fmt.Fprintf(os.Stderr, "barback server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", a.db.Path())
		fmt.Fprintf(os.Stderr, "  Checkpoints: %s\n", cfg.Checkpoint.Backend)
		fmt.Fprintf(os.Stderr, "  Drinks indexed: %d\n", a.index.Count())
		th := engine.Thresholds()
		fmt.Fprintf(os.Stderr, "  Recommends after: >%d moods and >%d ingredients\n", th.Moods, th.Ingredients)
		if a.index.Count() == 0 {
			fmt.Fprintln(os.Stderr, "  Warning: the drink index is empty. Run `barback catalog import <file>` first.")
		}

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// pruneLoop drops expired sqlite checkpoints at start and then hourly.
func pruneLoop(ctx context.Context, s *checkpoint.SQLiteStore, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		n, err := s.Prune(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Warn("pruning checkpoints", "error", err)
		} else if n > 0 {
			logger.Info("pruned expired checkpoints", "count", n)
		}
		if counts, err := s.CountByPhase(ctx); err == nil {
			logger.Debug("stored sessions", "greeting", counts[dialogue.PhaseGreeting],
				"interviewing", counts[dialogue.PhaseInterviewing], "done", counts[dialogue.PhaseDone])
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides config)")
	serverCmd.Flags().BoolVar(&serverAllowOrigin, "allow-all-origins", false, "Allow every CORS origin (development)")
	rootCmd.AddCommand(serverCmd)
}
