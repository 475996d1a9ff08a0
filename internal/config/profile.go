package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Wall is one stream definition: an independent rectangular capture target
// rendered to its own video file.
type Wall struct {
	Name   string `yaml:"name"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Pairing names two walls merged side by side (Left then Right) into one
// composite. Name is the composite's logical position ("top", "bottom").
type Pairing struct {
	Name  string `yaml:"name"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// Timing holds the time-mapping parameters for every run mode.
type Timing struct {
	FPS             int     `yaml:"fps"`
	SceneSeconds    float64 `yaml:"scene_seconds"`     // Length of one scene loop.
	FullSeconds     int     `yaml:"full_seconds"`      // Output length in full mode.
	PreviewSeconds  int     `yaml:"preview_seconds"`   // Output length in preview mode.
	LoopWindowStart float64 `yaml:"loop_window_start"` // Scene time where the loop-check tail begins.
	LoopSeconds     int     `yaml:"loop_seconds"`      // Output length in loop-check mode.
}

// Codec holds the encoder settings shared by wall encodes and merges.
type Codec struct {
	Encoder     string `yaml:"encoder"`
	CRF         int    `yaml:"crf"`
	WallPreset  string `yaml:"wall_preset"`
	MergePreset string `yaml:"merge_preset"`
	PixFmt      string `yaml:"pix_fmt"`
}

// AssetEntry is one base64 payload injected into the slim scene document.
type AssetEntry struct {
	ID       string `yaml:"id"`
	Path     string `yaml:"path"`
	Optional bool   `yaml:"optional"` // Inject an empty payload when the file is absent.
}

// Assets describes how the full scene document is assembled.
type Assets struct {
	Slim    string       `yaml:"slim"`
	Entries []AssetEntry `yaml:"entries"`
}

// Profile is the render profile: what is rendered and how it is laid out.
type Profile struct {
	Name            string    `yaml:"name"`
	Scene           string    `yaml:"scene"`
	CompositePrefix string    `yaml:"composite_prefix"`
	Walls           []Wall    `yaml:"walls"`
	Pairings        []Pairing `yaml:"pairings"`
	Timing          Timing    `yaml:"timing"`
	Codec           Codec     `yaml:"codec"`
	Assets          Assets    `yaml:"assets"`
}

// DefaultProfile reproduces the four-wall installation: two long side
// walls and two short end walls, merged into top and bottom strips.
func DefaultProfile() Profile {
	return Profile{
		Name:            "evening",
		Scene:           "scene_full.html",
		CompositePrefix: "composite",
		Walls: []Wall{
			{Name: "left", Width: 5008, Height: 1200},
			{Name: "front", Width: 1920, Height: 1200},
			{Name: "right", Width: 5008, Height: 1200},
			{Name: "back", Width: 1920, Height: 1200},
		},
		Pairings: []Pairing{
			{Name: "top", Left: "left", Right: "front"},
			{Name: "bottom", Left: "right", Right: "back"},
		},
		Timing: Timing{
			FPS:             30,
			SceneSeconds:    1800,
			FullSeconds:     1800,
			PreviewSeconds:  60,
			LoopWindowStart: 1770,
			LoopSeconds:     60,
		},
		Codec: Codec{
			Encoder:     "libx264",
			CRF:         14,
			WallPreset:  "medium",
			MergePreset: "slow",
			PixFmt:      "yuv420p",
		},
	}
}

// LoadProfile reads a YAML profile. Fields absent from the file keep their
// built-in defaults; unknown fields are rejected.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes YAML profile bytes over [DefaultProfile].
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// Wall returns the wall with the given name.
func (p *Profile) Wall(name string) (Wall, bool) {
	for _, w := range p.Walls {
		if w.Name == name {
			return w, true
		}
	}
	return Wall{}, false
}

// Validate checks wall geometry, name uniqueness, pairing references and
// codec settings.
func (p *Profile) Validate() error {
	if len(p.Walls) == 0 {
		return errors.New("at least one wall is required")
	}
	if strings.TrimSpace(p.Scene) == "" {
		return errors.New("scene document path is required")
	}
	seen := make(map[string]bool, len(p.Walls))
	for _, w := range p.Walls {
		if w.Name == "" || strings.ContainsAny(w.Name, `/\ `) {
			return fmt.Errorf("invalid wall name %q", w.Name)
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate wall %q", w.Name)
		}
		seen[w.Name] = true
		if w.Width <= 0 || w.Height <= 0 {
			return fmt.Errorf("wall %q: dimensions must be positive", w.Name)
		}
		// yuv420p subsamples chroma 2x2.
		if w.Width%2 != 0 || w.Height%2 != 0 {
			return fmt.Errorf("wall %q: dimensions must be even (got %dx%d)", w.Name, w.Width, w.Height)
		}
	}

	names := make(map[string]bool, len(p.Pairings))
	for _, pr := range p.Pairings {
		if pr.Name == "" || strings.ContainsAny(pr.Name, `/\ `) {
			return fmt.Errorf("invalid pairing name %q", pr.Name)
		}
		if names[pr.Name] {
			return fmt.Errorf("duplicate pairing %q", pr.Name)
		}
		names[pr.Name] = true
		l, ok := p.Wall(pr.Left)
		if !ok {
			return fmt.Errorf("pairing %q: unknown wall %q", pr.Name, pr.Left)
		}
		r, ok := p.Wall(pr.Right)
		if !ok {
			return fmt.Errorf("pairing %q: unknown wall %q", pr.Name, pr.Right)
		}
		if pr.Left == pr.Right {
			return fmt.Errorf("pairing %q: walls must differ", pr.Name)
		}
		if l.Height != r.Height {
			return fmt.Errorf("pairing %q: hstack needs equal heights (%d vs %d)", pr.Name, l.Height, r.Height)
		}
	}
	if len(p.Pairings) > 0 && strings.TrimSpace(p.CompositePrefix) == "" {
		return errors.New("composite prefix is required when pairings are defined")
	}

	if p.Codec.Encoder == "" || p.Codec.WallPreset == "" || p.Codec.MergePreset == "" || p.Codec.PixFmt == "" {
		return errors.New("codec encoder, presets and pix_fmt are required")
	}
	if p.Codec.CRF < 0 || p.Codec.CRF > 51 {
		return fmt.Errorf("crf must be in 0..51 (got %d)", p.Codec.CRF)
	}
	return nil
}
