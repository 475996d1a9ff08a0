package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/wallrender/internal/config"
)

type nopLogger struct{ warnings int }

func (*nopLogger) Info(string, ...interface{}) {}
func (l *nopLogger) Warn(string, ...interface{}) {
	l.warnings++
}

const slim = `<html><body>
<script id="skydata" type="text/plain">ASSET_PLACEHOLDER</script>
<script id="birdsdata" type="text/plain">ASSET_PLACEHOLDER</script>
<script id="saturndata" type="text/plain">ASSET_PLACEHOLDER</script>
</body></html>`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAssemble(t *testing.T) {
	dir := t.TempDir()
	a := config.Assets{
		Slim: write(t, dir, "scene_slim.html", slim),
		Entries: []config.AssetEntry{
			{ID: "skydata", Path: write(t, dir, "skydata.b64", "U0tZ\n")},
			{ID: "birdsdata", Path: write(t, dir, "birds.bin", "hi")},
			{ID: "saturndata", Path: filepath.Join(dir, "missing.b64"), Optional: true},
			{ID: "planetdata", Path: write(t, dir, "planet.b64", "UA==")},
		},
	}
	out := filepath.Join(dir, "build", "scene_full.html")
	log := &nopLogger{}
	rep, err := Assemble(a, out, log)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(b)
	for _, want := range []string{
		`<script id="skydata" type="text/plain">U0tZ</script>`,
		`<script id="birdsdata" type="text/plain">aGk=</script>`,
		`<script id="saturndata" type="text/plain"></script>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %s", want)
		}
	}
	if strings.Contains(html, "ASSET_PLACEHOLDER") {
		t.Error("placeholder left in document")
	}
	if len(rep.Injected) != 3 || !rep.Injected[2].Empty {
		t.Errorf("injected = %+v", rep.Injected)
	}
	if log.warnings != 1 {
		t.Errorf("warnings = %d, want 1 for planetdata", log.warnings)
	}
	if rep.Size != int64(len(html)) {
		t.Errorf("size = %d", rep.Size)
	}
}

func TestAssemble_Errors(t *testing.T) {
	dir := t.TempDir()
	slimPath := write(t, dir, "slim.html", slim)
	tests := []struct {
		name string
		a    config.Assets
	}{
		{"no slim", config.Assets{}},
		{"slim missing", config.Assets{Slim: filepath.Join(dir, "nope.html")}},
		{"required asset missing", config.Assets{Slim: slimPath, Entries: []config.AssetEntry{
			{ID: "skydata", Path: filepath.Join(dir, "nope.b64")},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.a, filepath.Join(dir, "out.html"), &nopLogger{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}
