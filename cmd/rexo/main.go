// Command rexo serves pages rendered by impractical.co/rexo over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"impractical.co/rexo"
	"impractical.co/rexo/datasource"
	rexostore "impractical.co/rexo/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", os.Getenv("REXO_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := loadConfig(configPath, os.Getenv)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = rexo.LoggingContext(ctx, logger)

	templates, closeTemplates, err := newTemplateStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeTemplates()

	data, err := datasource.New(cfg.Data.URL, datasource.WithAPIKey(cfg.Data.APIKey))
	if err != nil {
		return err
	}

	engine := rexo.NewEngine(rexo.Globals{
		CDN:     cfg.Globals.CDN,
		Project: cfg.Globals.Project,
	})
	renderer, err := rexo.New(templates, data,
		rexo.WithEngine(engine),
		rexo.WithFetchTimeout(cfg.Data.FetchTimeout),
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(logger, rexo.NewHandler(renderer)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rexo listening", "addr", srv.Addr, "development", cfg.Development())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newTemplateStore reads templates from the local disk in development and
// from Cloud Storage everywhere else.
func newTemplateStore(ctx context.Context, cfg Config, logger *slog.Logger) (rexo.TemplateStore, func(), error) {
	if cfg.Development() {
		logger.InfoContext(ctx, "reading templates from disk", "path", cfg.Templates.Path)
		return rexostore.NewDir(cfg.Templates.Path), func() {}, nil
	}

	var opts []option.ClientOption
	if cfg.Templates.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Templates.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating storage client: %w", err)
	}
	bucket := client.Bucket(cfg.Templates.Bucket)
	logger.InfoContext(ctx, "reading templates from cloud storage", "bucket", cfg.Templates.Bucket, "prefix", cfg.Templates.Path)
	return rexostore.NewGCS(rexostore.BucketObjects(bucket), cfg.Templates.Path), func() {
		_ = client.Close()
	}, nil
}
