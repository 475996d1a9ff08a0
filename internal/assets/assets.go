// Package assets assembles the full scene document from a slim HTML
// document and base64 asset payloads. Each payload replaces the
// placeholder body of the script tag with the entry's id:
//
//	<script id="skydata" type="text/plain">ASSET_PLACEHOLDER</script>
package assets

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/display"
)

const placeholderBody = "ASSET_PLACEHOLDER"

// Logger is the logging surface assembly needs.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
}

// Injected describes one injected payload.
type Injected struct {
	ID    string
	Bytes int // base64 length
	Empty bool
}

// Report summarizes one assembly.
type Report struct {
	Output   string
	Size     int64
	Injected []Injected
}

func placeholder(id string) string {
	return `<script id="` + id + `" type="text/plain">` + placeholderBody + `</script>`
}

// Assemble reads a.Slim, injects every entry and writes the result to out.
// Files ending in .b64 are injected as-is (trimmed); any other file is
// base64-encoded first. A missing optional file injects an empty payload;
// a missing required file is an error. An entry whose placeholder is not in
// the document is skipped with a warning.
func Assemble(a config.Assets, out string, log Logger) (*Report, error) {
	if a.Slim == "" {
		return nil, errors.New("no slim scene document configured")
	}
	raw, err := os.ReadFile(a.Slim)
	if err != nil {
		return nil, fmt.Errorf("read slim document: %w", err)
	}
	html := string(raw)

	rep := &Report{Output: out}
	for _, e := range a.Entries {
		ph := placeholder(e.ID)
		if !strings.Contains(html, ph) {
			log.Warn("No placeholder for asset %q in %s", e.ID, filepath.Base(a.Slim))
			continue
		}
		payload, err := load(e)
		if err != nil {
			return nil, err
		}
		html = strings.Replace(html, ph, `<script id="`+e.ID+`" type="text/plain">`+payload+`</script>`, 1)
		rep.Injected = append(rep.Injected, Injected{ID: e.ID, Bytes: len(payload), Empty: payload == ""})
		log.Info("  Injected %s: %s", e.ID, display.FormatBytes(int64(len(payload))))
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return nil, fmt.Errorf("write scene document: %w", err)
	}
	rep.Size = int64(len(html))
	log.Info("Assembled %s (%s)", out, display.FormatBytes(rep.Size))
	return rep, nil
}

func load(e config.AssetEntry) (string, error) {
	b, err := os.ReadFile(e.Path)
	if err != nil {
		if e.Optional && errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("asset %s: %w", e.ID, err)
	}
	if strings.EqualFold(filepath.Ext(e.Path), ".b64") {
		return strings.TrimSpace(string(b)), nil
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
