// Package scene defines the frame source capability the pipeline renders
// from, the explicit scene [Context] passed into it, and the two concrete
// sources: a renderer-host subprocess ([Process]) and a synthetic test card
// ([TestCard]).
package scene

import (
	"context"
	"fmt"

	"github.com/backmassage/wallrender/internal/config"
)

// Source advances a scene and captures compressed images of its walls.
//
// Advance blocks until the scene reflects simulation instant t. Capture
// returns one JPEG image for wall at the instant last advanced to. Calls are
// never concurrent for a single Source, and Capture is never called for an
// instant other than the last one advanced to.
type Source interface {
	Advance(ctx context.Context, sc *Context, t float64) error
	Capture(ctx context.Context, sc *Context, wall string) ([]byte, error)
	Close() error
}

// Logger is the logging surface sources need.
type Logger interface {
	Info(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Open returns the source selected by cfg.Source, ready for its first
// Advance. The process source waits for scene readiness up to
// cfg.ReadyTimeout.
func Open(ctx context.Context, cfg *config.Config, log Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceTestCard:
		log.Info("Source: test card")
		return NewTestCard(cfg.Profile.Walls), nil
	case config.SourceProcess:
		log.Info("Source: %s %s", cfg.RendererCmd, cfg.Profile.Scene)
		return StartProcess(ctx, ProcessOptions{
			Command:      cfg.RendererCmd,
			Scene:        cfg.Profile.Scene,
			ReadyTimeout: cfg.ReadyTimeout,
			Verbose:      cfg.Verbose,
		}, log)
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
