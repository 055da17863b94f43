package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmorandi/docvault"
	"github.com/cmorandi/docvault/config"
	"github.com/cmorandi/docvault/database"
	"github.com/cmorandi/docvault/gateway/memory"
	"github.com/cmorandi/docvault/gateway/s3"
	dvhttp "github.com/cmorandi/docvault/http"
	"github.com/cmorandi/docvault/identity"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the docvault HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
	serveCmd.Flags().String("base-url", "", "public base URL used in share links")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		slog.Info("database migration complete")
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	repo := db.GetRepo()
	slog.Info("connected to database", "type", cfg.Database.Type)

	gw, blobHandler, err := buildGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build gateway: %w", err)
	}

	broker, err := docvault.NewBroker(repo, gw, docvault.BrokerConfig{
		ShareBaseURL: cfg.Server.PublicBaseURL,
	})
	if err != nil {
		return fmt.Errorf("create broker: %w", err)
	}

	var verifier dvhttp.RequestVerifier
	if cfg.Auth.Enabled {
		resolver, resolverErr := identity.NewResolver(cfg.Auth.Keys)
		if resolverErr != nil {
			return fmt.Errorf("load access keys: %w", resolverErr)
		}
		verifier = docvault.NewSignatureVerifier(cfg.Auth.AWS, resolver)
	} else {
		slog.Warn("authentication disabled, owner operations will be rejected")
	}

	handlerConfig := dvhttp.HandlerConfig{
		Verifier: verifier,
		CORS:     cfg.CORS,
		Pinger:   db,
	}
	handler := dvhttp.NewHandler(&handlerConfig, broker)

	var root http.Handler = handler.Router()
	if blobHandler != nil {
		// The in-memory gateway serves its own blob endpoints; mount them
		// beside the API so issued handles resolve against this server.
		mux := http.NewServeMux()
		mux.Handle("/blobs/", blobHandler)
		mux.Handle("/", root)
		root = mux
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "storage", cfg.Storage.Type)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildGateway constructs the configured blob gateway. The memory backend
// also returns an HTTP handler for its blob endpoints.
func buildGateway(ctx context.Context, cfg *config.Config) (docvault.BlobGateway, http.Handler, error) {
	switch cfg.Storage.Type {
	case "s3":
		gw, err := s3.New(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, nil, err
		}
		return gw, nil, nil
	case "memory":
		memCfg := cfg.Storage.Memory
		if memCfg.BaseURL == "" {
			memCfg.BaseURL = cfg.Server.PublicBaseURL
		}
		gw, err := memory.New(memCfg)
		if err != nil {
			return nil, nil, err
		}
		return gw, gw.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}
