package planner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/backmassage/wallrender/internal/config"
	"github.com/backmassage/wallrender/internal/timemap"
)

// WallPlan is one wall and where its video goes.
type WallPlan struct {
	Wall       config.Wall
	OutputPath string
}

// MergePlan is one pairing with its resolved inputs and output.
type MergePlan struct {
	Pairing    config.Pairing
	Left       WallPlan
	Right      WallPlan
	OutputPath string
}

// Width is the composite width: the sum of both walls.
func (m MergePlan) Width() int { return m.Left.Wall.Width + m.Right.Wall.Width }

// Height is the shared wall height.
func (m MergePlan) Height() int { return m.Left.Wall.Height }

// Plan is the immutable description of one run. The wall set, the mode
// and the frame count never change after Build.
type Plan struct {
	RunID     string
	Mode      timemap.Mode
	Mapper    timemap.Mapper
	OutputDir string
	Codec     config.Codec
	Walls     []WallPlan
	Merges    []MergePlan
}

// Total is the number of frames every wall receives.
func (p *Plan) Total() int { return p.Mapper.Total() }

// FPS is the output frame rate.
func (p *Plan) FPS() int { return p.Mapper.FPS() }

// Wall returns the plan entry for the named wall.
func (p *Plan) Wall(name string) (WallPlan, bool) {
	for _, w := range p.Walls {
		if w.Wall.Name == name {
			return w, true
		}
	}
	return WallPlan{}, false
}

// Build produces the plan for cfg. cfg must be loaded and validated.
// Merges are omitted when cfg.SkipMerge is set.
func Build(cfg *config.Config) (*Plan, error) {
	mode, err := cfg.RunMode()
	if err != nil {
		return nil, err
	}
	mapper, err := timemap.NewMapper(mode)
	if err != nil {
		return nil, err
	}

	prof := &cfg.Profile
	plan := &Plan{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Mapper:    mapper,
		OutputDir: cfg.OutputDir,
		Codec:     prof.Codec,
	}

	cl := newClaims()
	for _, w := range prof.Walls {
		wp := WallPlan{Wall: w, OutputPath: WallPath(cfg.OutputDir, w.Name, mode)}
		if err := cl.claim("wall "+w.Name, wp.OutputPath); err != nil {
			return nil, err
		}
		plan.Walls = append(plan.Walls, wp)
	}

	if cfg.SkipMerge {
		return plan, nil
	}
	for _, pr := range prof.Pairings {
		left, ok := plan.Wall(pr.Left)
		if !ok {
			return nil, fmt.Errorf("pairing %q: unknown wall %q", pr.Name, pr.Left)
		}
		right, ok := plan.Wall(pr.Right)
		if !ok {
			return nil, fmt.Errorf("pairing %q: unknown wall %q", pr.Name, pr.Right)
		}
		mp := MergePlan{
			Pairing:    pr,
			Left:       left,
			Right:      right,
			OutputPath: CompositePath(cfg.OutputDir, prof.CompositePrefix, pr.Name, mode),
		}
		if err := cl.claim("pairing "+pr.Name, mp.OutputPath); err != nil {
			return nil, err
		}
		plan.Merges = append(plan.Merges, mp)
	}
	return plan, nil
}
