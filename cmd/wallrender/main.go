// Command wallrender renders a multi-wall scene to one video per wall and
// merges wall pairs side by side into wide composites.
//
// It parses flags, loads the render profile, validates the environment and
// either runs system diagnostics (--check) or a render run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/backmassage/wallrender/internal/assets"
	"github.com/backmassage/wallrender/internal/check"
	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/display"
	"github.com/backmassage/wallrender/internal/failure"
	"github.com/backmassage/wallrender/internal/logging"
	"github.com/backmassage/wallrender/internal/pipeline"
	"github.com/backmassage/wallrender/internal/planner"
	"github.com/backmassage/wallrender/internal/publish"
	"github.com/backmassage/wallrender/internal/scene"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// bucketTimeout bounds the publish bucket check before rendering starts.
const bucketTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "wallrender: %v\n", err)
		return 1
	}
	if err := cfg.LoadProfile(); err != nil {
		fmt.Fprintf(os.Stderr, "wallrender: %v\n", err)
		return 1
	}
	cfg.OutputDir = config.NormalizeDirArg(cfg.OutputDir)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "wallrender: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wallrender: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available.
	display.PrintBanner(os.Stdout)

	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return 0
	}

	log.Info("=== wallrender v%s (%s) ===", version, commit)
	log.Info("Profile: %s", cfg.Profile.Name)
	log.Info("Out: %s", cfg.OutputDir)

	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}
	if cfg.Assemble {
		if _, err := assets.Assemble(cfg.Profile.Assets, cfg.Profile.Scene, log); err != nil {
			log.Error("%v", failure.Setup(err))
			return 1
		}
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.OutputDir)
		return 1
	}

	plan, err := planner.Build(&cfg)
	if err != nil {
		log.Error("%v", failure.Setup(err))
		return 1
	}

	// Phase 3: Signal handling. Cancellation aborts the run: encoders are
	// terminated and partial wall videos removed.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Received interrupt, aborting run...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var publisher pipeline.Publisher
	if cfg.Publish {
		p, err := newPublisher(ctx, &cfg, log)
		if err != nil {
			log.Error("%v", failure.Setup(err))
			return 1
		}
		publisher = p
	}

	// Phase 4: Open the scene and run.
	src, err := scene.Open(ctx, &cfg, log)
	if err != nil {
		log.Error("%v", failure.Setup(err))
		return 1
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Debug(cfg.Verbose, "Renderer close: %v", err)
		}
	}()

	orch := pipeline.New(&cfg, plan, src, log)
	orch.Publisher = publisher
	if _, err := orch.Run(ctx); err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}

func newPublisher(ctx context.Context, cfg *config.Config, log *logging.Logger) (*publish.Publisher, error) {
	store, err := publish.NewMinioStore(cfg.S3)
	if err != nil {
		return nil, err
	}
	bctx, cancel := context.WithTimeout(ctx, bucketTimeout)
	defer cancel()
	if err := store.EnsureBucket(bctx); err != nil {
		return nil, err
	}
	log.Info("Publishing to %s/%s", cfg.S3.Endpoint, cfg.S3.Bucket)
	return &publish.Publisher{Store: store, Prefix: cfg.S3.Prefix, Log: log}, nil
}
