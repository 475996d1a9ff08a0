package planner

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/backmassage/wallrender/internal/timemap"
)

const videoExt = ".mp4"

// Suffix is the file name suffix for a run mode.
func Suffix(m timemap.Mode) string {
	if _, ok := m.(timemap.Full); ok {
		return ""
	}
	return "_" + m.Name()
}

// WallPath builds the output path of one wall video.
func WallPath(outputDir, wall string, m timemap.Mode) string {
	return filepath.Join(outputDir, "wall_"+wall+Suffix(m)+videoExt)
}

// CompositePath builds the output path of one merged composite.
func CompositePath(outputDir, prefix, position string, m timemap.Mode) string {
	return filepath.Join(outputDir, prefix+"_"+position+Suffix(m)+videoExt)
}

// claims tracks which plan entry owns each output path so two entries can
// never write the same file (a composite prefix of "wall" could otherwise
// shadow a wall video).
type claims struct {
	mu     sync.Mutex
	owners map[string]string // output path -> owner label
}

func newClaims() *claims {
	return &claims{owners: make(map[string]string)}
}

// claim records path for owner, failing when another owner holds it.
func (c *claims) claim(owner, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := filepath.Clean(path)
	if prev, ok := c.owners[key]; ok && prev != owner {
		return fmt.Errorf("output %s claimed by both %s and %s", path, prev, owner)
	}
	c.owners[key] = owner
	return nil
}
