package scene

import (
	"path/filepath"
	"strings"
)

// Load reads any supported source by extension: YAML snapshots, glTF scenes or images.
// A glTF scene fills both the model and its collision; an image fills only the texture.
func Load(path string, opts Options) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path, opts)
	case ".gltf", ".glb":
		m, err := LoadGLTF(path, opts)
		if err != nil {
			return nil, err
		}
		return &Document{Model: m, Collision: CollisionFromModel(m)}, nil
	default:
		tex, err := LoadTexture(path)
		if err != nil {
			return nil, err
		}
		return &Document{Texture: tex}, nil
	}
}
