package scene

import (
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "box.YML")
	if err := os.WriteFile(yamlPath, []byte(boxYAML), 0644); err != nil {
		t.Fatalf("failed to write snapshot: %v", err)
	}
	doc, err := Load(yamlPath, Options{})
	if err != nil {
		t.Fatalf("Load yaml failed: %v", err)
	}
	if doc.Model == nil || doc.Texture != nil {
		t.Errorf("yaml document = %+v, want model only", doc)
	}

	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{B: 255, A: 255})
	pngPath := filepath.Join(dir, "swatch.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatalf("failed to create png: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	f.Close()

	doc, err = Load(pngPath, Options{})
	if err != nil {
		t.Fatalf("Load png failed: %v", err)
	}
	if doc.Texture == nil || doc.Model != nil {
		t.Fatalf("image document = %+v, want texture only", doc)
	}
	if doc.Texture.Width != 2 || doc.Texture.Height != 1 || doc.Texture.C[0] != 1 || doc.Texture.C[5] != 1 {
		t.Errorf("texture = %dx%d %v", doc.Texture.Width, doc.Texture.Height, doc.Texture.C)
	}

	if _, err := Load(filepath.Join(dir, "missing.glb"), Options{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist for missing glb, got %v", err)
	}
}
