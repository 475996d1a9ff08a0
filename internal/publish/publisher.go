package publish

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/wallrender/internal/display"
	"github.com/backmassage/wallrender/internal/failure"
)

const videoContentType = "video/mp4"

// Logger is the logging surface the publisher needs.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
}

// Publisher uploads files sequentially. The first failed upload stops the
// rest; files already uploaded stay in the store.
type Publisher struct {
	Store  Store
	Prefix string
	Log    Logger
}

// ObjectKey is the key a file of run runID is stored under.
func ObjectKey(prefix, runID, file string) string {
	parts := []string{}
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, runID, filepath.Base(file))
	return path.Join(parts...)
}

// Publish uploads paths under runID.
func (p *Publisher) Publish(ctx context.Context, runID string, paths []string) error {
	p.Log.Info("Publishing %d files (run %s)", len(paths), runID)
	for _, file := range paths {
		if err := p.upload(ctx, runID, file); err != nil {
			return &failure.Error{Kind: failure.PublishFailure, Stage: "publish",
				Stream: filepath.Base(file), Frame: failure.NoFrame, Err: err}
		}
	}
	return nil
}

func (p *Publisher) upload(ctx context.Context, runID, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	key := ObjectKey(p.Prefix, runID, file)
	start := time.Now()
	if err := p.Store.Put(ctx, key, f, fi.Size(), videoContentType); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	p.Log.Success("Uploaded %s (%s) in %s", key, display.FormatBytes(fi.Size()), time.Since(start).Round(time.Millisecond))
	return nil
}
