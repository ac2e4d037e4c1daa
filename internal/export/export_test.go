package export

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/gwexport/internal/config"
	"github.com/Faultbox/gwexport/internal/scene"
	"github.com/Faultbox/gwexport/pkg/formats"
)

const sceneYAML = `
model:
  name: quad
  path: C:\props\quad
  points:
    - [0, 0, 0]
    - [1, 0, 0]
    - [1, 1, 0]
    - [0, 1, 0]
  triangles:
    - {points: [0, 1, 2]}
    - {points: [0, 2, 3]}
collision:
  name: quad
  path: /col/quad
  points:
    - [0, 0, 0]
    - [1, 0, 0]
    - [1, 1, 0]
    - [0, 1, 0]
  polygons:
    - [0, 1, 2, 3]
texture:
  name: dot
  width: 1
  height: 1
  c: [1, 0, 0]
motion:
  name: walk
  tracks:
    - {name: tx, samples: [0, 1]}
`

const emptyYAML = `
model:
  name: empty
  points:
    - [0, 0, 0]
`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func newRunner(t *testing.T, cfg *config.Config) *Runner {
	t.Helper()
	r, err := NewRunner(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return r
}

func TestRun(t *testing.T) {
	in := t.TempDir()
	scenePath := writeInput(t, in, "scene.yaml", sceneYAML)
	emptyPath := writeInput(t, in, "empty.yaml", emptyYAML)

	cfg := config.Default()
	cfg.Export.OutDir = filepath.Join(t.TempDir(), "res")
	cfg.Export.MotionLayout = config.MotionColumns
	cfg.Jobs = []config.Job{
		{Kind: config.JobModel, Input: scenePath},
		{Kind: config.JobModel, Input: filepath.Join(in, "gone.yaml")},
		{Kind: config.JobCollision, Input: scenePath, Name: "floor"},
		{Kind: config.JobModel, Input: emptyPath},
		{Kind: config.JobTexture, Input: scenePath, Name: "dot"},
		{Kind: config.JobMotion, Input: scenePath, Name: "walk"},
		{Kind: config.JobMotion, Input: emptyPath},
	}

	sum, err := newRunner(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	wantFiles := []string{"scene.gwmdl", "floor.gwcls", "dot.dds", "walk.txt"}
	if strings.Join(sum.Written, ",") != strings.Join(wantFiles, ",") {
		t.Errorf("written = %v, want %v", sum.Written, wantFiles)
	}
	if sum.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", sum.Skipped)
	}
	if sum.RunID == "" {
		t.Error("run id not set")
	}

	// Empty geometry is not a failure; the missing file and missing motion section are.
	errs := multierr.Errors(sum.Err)
	if len(errs) != 2 {
		t.Fatalf("failures = %v, want 2", errs)
	}
	for _, e := range errs {
		if !errors.Is(e, ErrMissingInput) {
			t.Errorf("failure %v is not ErrMissingInput", e)
		}
	}

	for _, f := range wantFiles {
		if _, err := os.Stat(filepath.Join(cfg.Export.OutDir, f)); err != nil {
			t.Errorf("%s not written: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.OutDir, "empty.gwmdl")); !os.IsNotExist(err) {
		t.Error("empty model should not produce a file")
	}

	motion, err := os.ReadFile(filepath.Join(cfg.Export.OutDir, "walk.txt"))
	if err != nil {
		t.Fatalf("reading motion: %v", err)
	}
	if string(motion) != "tx\n0.00000000\n1.00000000\n" {
		t.Errorf("motion = %q", motion)
	}

	data, err := os.ReadFile(sum.Catalog)
	if err != nil {
		t.Fatalf("reading catalog: %v", err)
	}
	if filepath.Base(sum.Catalog) != "scene.gwcat" {
		t.Errorf("catalog path = %s", sum.Catalog)
	}
	if n := binary.LittleEndian.Uint32(data[0x20:]); n != 4 {
		t.Errorf("catalog entries = %d, want 4", n)
	}
	kinds := []formats.Kind{formats.KindModel, formats.KindCollision, formats.KindDDS, formats.KindTDMot}
	for i, k := range kinds {
		got := formats.Kind(binary.LittleEndian.Uint32(data[0x24+i*formats.CatalogEntrySize:]))
		if got != k {
			t.Errorf("entry %d kind = %v, want %v", i, got, k)
		}
	}
}

func TestRun_NormalizesPath(t *testing.T) {
	in := t.TempDir()
	cfg := config.Default()
	cfg.Export.OutDir = t.TempDir()
	cfg.Jobs = []config.Job{{Kind: config.JobModel, Input: writeInput(t, in, "quad.yaml", sceneYAML)}}

	if _, err := newRunner(t, cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Export.OutDir, "quad.gwmdl"))
	if err != nil {
		t.Fatalf("reading model: %v", err)
	}
	if !strings.Contains(string(data), `C:/props/quad`) {
		t.Error("model path not normalized to forward slashes")
	}
}

func TestRun_NothingWritten(t *testing.T) {
	cfg := config.Default()
	cfg.Export.OutDir = t.TempDir()
	cfg.Jobs = []config.Job{{Kind: config.JobModel, Input: writeInput(t, t.TempDir(), "empty.yaml", emptyYAML)}}

	sum, err := newRunner(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum.Catalog != "" || sum.Err != nil {
		t.Errorf("summary = %+v, want no catalog and no failures", sum)
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.OutDir, cfg.Export.Catalog)); !os.IsNotExist(err) {
		t.Error("empty batch should not write a catalog")
	}
}

func TestRun_Cancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Export.OutDir = t.TempDir()
	cfg.Jobs = []config.Job{{Kind: config.JobModel, Input: writeInput(t, t.TempDir(), "quad.yaml", sceneYAML)}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := newRunner(t, cfg).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sum.Written) != 0 {
		t.Errorf("written = %v after cancel", sum.Written)
	}
}

func TestRun_InvariantStopsBatch(t *testing.T) {
	scenePath := writeInput(t, t.TempDir(), "scene.yaml", sceneYAML)
	cfg := config.Default()
	cfg.Export.OutDir = t.TempDir()
	cfg.Jobs = []config.Job{
		{Kind: config.JobModel, Input: scenePath},
		{Kind: config.JobModel, Input: scenePath, Name: "second"},
		{Kind: config.JobCollision, Input: scenePath, Name: "floor"},
	}

	r := newRunner(t, cfg)
	calls := 0
	r.buildModel = func(m *scene.Model, opts ...formats.Option) ([]byte, error) {
		calls++
		if calls == 2 {
			return nil, &formats.InvariantError{Resource: m.Name, Detail: "index out of group range"}
		}
		return formats.BuildModel(m, opts...)
	}

	sum, err := r.Run(context.Background())
	var inv *formats.InvariantError
	if !errors.As(err, &inv) {
		t.Fatalf("expected *formats.InvariantError, got %v", err)
	}
	if inv.Resource != "quad" {
		t.Errorf("resource = %q, want quad", inv.Resource)
	}
	if strings.Join(sum.Written, ",") != "scene.gwmdl" {
		t.Errorf("written = %v, want [scene.gwmdl]", sum.Written)
	}
	if sum.Catalog != "" {
		t.Errorf("catalog = %q after invariant failure", sum.Catalog)
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.OutDir, cfg.Export.Catalog)); !os.IsNotExist(err) {
		t.Error("catalog written after invariant failure")
	}
	if _, err := os.Stat(filepath.Join(cfg.Export.OutDir, "floor.gwcls")); !os.IsNotExist(err) {
		t.Error("jobs after the invariant failure should not run")
	}
}

func TestRun_UnwritableOutput(t *testing.T) {
	blocker := writeInput(t, t.TempDir(), "file", "x")
	cfg := config.Default()
	cfg.Export.OutDir = filepath.Join(blocker, "res")

	if _, err := newRunner(t, cfg).Run(context.Background()); !errors.Is(err, ErrIOFailure) {
		t.Errorf("expected ErrIOFailure, got %v", err)
	}
}

func TestExport(t *testing.T) {
	cfg := config.Default()
	cfg.Export.OutDir = t.TempDir()
	r := newRunner(t, cfg)

	path, err := r.Export(config.Job{Kind: config.JobCollision, Input: writeInput(t, t.TempDir(), "room.yaml", sceneYAML)})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if path != filepath.Join(cfg.Export.OutDir, "room.gwcls") {
		t.Errorf("path = %s", path)
	}

	_, err = r.Export(config.Job{Kind: config.JobTexture, Input: filepath.Join(t.TempDir(), "none.png")})
	if !errors.Is(err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput, got %v", err)
	}
}

func TestNewRunnerBadEncoding(t *testing.T) {
	cfg := config.Default()
	cfg.Export.Encoding = "klingon"
	if _, err := NewRunner(cfg, nil); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		job  config.Job
		want string
	}{
		{config.Job{Input: "scenes/hero.gltf"}, "hero"},
		{config.Job{Input: "scenes/hero.gltf", Node: "body"}, "hero_body"},
		{config.Job{Input: "scenes/hero.gltf", Name: "player"}, "player"},
		{config.Job{Input: "anim.walk.yaml"}, "anim.walk"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.job); got != tt.want {
			t.Errorf("OutputName(%+v) = %q, want %q", tt.job, got, tt.want)
		}
	}
}
