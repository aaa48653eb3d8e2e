package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/huddleai/huddle/pkg/api"
	"github.com/huddleai/huddle/pkg/config"
	"github.com/huddleai/huddle/pkg/logging"
	"github.com/huddleai/huddle/pkg/model"
	"github.com/huddleai/huddle/pkg/session"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	listenFlag      = flag.String("listen", "", "listen address override (host:port)")
	autoCaptureFlag = flag.Bool("capture", false, "start screen capture immediately")
	versionFlag     = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("huddle %s (%s, built %s)\n", version, commit, buildDate)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "huddle: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *listenFlag != "" {
		cfg.Server.Listen = *listenFlag
	}

	sessionID := session.GenerateSessionID("huddle")

	logger, err := logging.NewLogger(cfg.Session.LogDir, sessionID)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()

	if cfg.Providers.OpenAI.APIKey == "" {
		logger.Warn(logging.CategoryConfig, "missing_api_key",
			"no OpenAI API key configured; analysis and answers will fail", nil)
	}

	var providerOpts []model.ProviderOption
	if cfg.Diagnostics.NetworkLogsEnabled {
		transport := model.NewLoggingTransport(http.DefaultTransport, cfg.Session.LogDir)
		providerOpts = append(providerOpts, model.WithTransport(transport))
	}
	provider := model.NewOpenAIProvider(cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.BaseURL, providerOpts...)

	sess := session.NewWithID(sessionID, cfg, provider, logger)
	defer sess.Close()

	if *autoCaptureFlag {
		sess.StartCapture()
	}

	server := api.NewServer(cfg, sess, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		// Stop the capture loop before the listener so no capture
		// iteration outlives the process teardown.
		sess.StopCapture()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info(logging.CategorySession, "started", "huddle session started", map[string]any{
		"session_id": sessionID,
		"version":    version,
	})

	return g.Wait()
}
