package scene

import (
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/gwexport/pkg/skin"
)

// Options control how host data is mapped into snapshots.
type Options struct {
	// SkeletonRoot names the joint the skeleton is read from. Empty selects the document root.
	SkeletonRoot string
	// Node restricts glTF loading to the subtree of the named node.
	Node string
}

// Document is a parsed snapshot file. Any of the resources may be nil.
type Document struct {
	Model     *Model
	Collision *Collision
	Texture   *Texture
	Motion    *Motion
}

type yamlDocument struct {
	Model     *yamlModel     `yaml:"model"`
	Collision *yamlCollision `yaml:"collision"`
	Texture   *yamlTexture   `yaml:"texture"`
	Motion    *yamlMotion    `yaml:"motion"`
}

type yamlModel struct {
	Name       string         `yaml:"name"`
	Path       string         `yaml:"path"`
	ExtInfo    string         `yaml:"ext_info"`
	Points     []mgl32.Vec3   `yaml:"points"`
	Attributes yamlAttributes `yaml:"attributes"`
	Triangles  []yamlTriangle `yaml:"triangles"`
	Materials  []yamlMaterial `yaml:"materials"`
	Skin       *yamlSkin      `yaml:"skin"`
	Skeleton   *yamlJoint     `yaml:"skeleton"`
}

type yamlAttributes struct {
	Normal  []mgl32.Vec3 `yaml:"normal"`
	Tangent []mgl32.Vec3 `yaml:"tangent"`
	Color   []mgl32.Vec3 `yaml:"color"`
	Alpha   []float32    `yaml:"alpha"`
	AO      []float32    `yaml:"ao"`
	UV0     []mgl32.Vec2 `yaml:"uv0"`
	UV1     []mgl32.Vec2 `yaml:"uv1"`
}

type yamlTriangle struct {
	Points   [3]int `yaml:"points"`
	Material string `yaml:"material"`
}

type yamlMaterial struct {
	Path            string      `yaml:"path"`
	Schema          Schema      `yaml:"schema"`
	BaseColor       *mgl32.Vec3 `yaml:"base_color"`
	SpecColor       *mgl32.Vec3 `yaml:"spec_color"`
	Roughness       *float32    `yaml:"roughness"`
	IOR             *float32    `yaml:"ior"`
	BumpScale       *float32    `yaml:"bump_scale"`
	DoubleSided     bool        `yaml:"double_sided"`
	SemiTransparent bool        `yaml:"semi_transparent"`
	FlipTangent     bool        `yaml:"flip_tangent"`
	FlipBitangent   bool        `yaml:"flip_bitangent"`
	BaseMap         string      `yaml:"base_map"`
	Ext             string      `yaml:"ext"`
}

type yamlInfluence struct {
	Bone   int     `yaml:"bone"`
	Weight float32 `yaml:"weight"`
}

type yamlSkin struct {
	Bones      []string          `yaml:"bones"`
	Influences [][]yamlInfluence `yaml:"influences"`
}

type yamlJoint struct {
	Name     string       `yaml:"name"`
	Local    *mgl32.Mat4  `yaml:"local"`
	Children []*yamlJoint `yaml:"children"`
}

type yamlCollision struct {
	Name     string       `yaml:"name"`
	Path     string       `yaml:"path"`
	Points   []mgl32.Vec3 `yaml:"points"`
	Polygons [][]int      `yaml:"polygons"`
}

type yamlTexture struct {
	Name   string    `yaml:"name"`
	Path   string    `yaml:"path"`
	Image  string    `yaml:"image"`
	Width  int       `yaml:"width"`
	Height int       `yaml:"height"`
	C      []float32 `yaml:"c"`
	A      []float32 `yaml:"a"`
}

type yamlMotion struct {
	Name   string `yaml:"name"`
	Path   string `yaml:"path"`
	Tracks []struct {
		Name    string    `yaml:"name"`
		Samples []float32 `yaml:"samples"`
	} `yaml:"tracks"`
}

// LoadYAML reads a snapshot document from path.
func LoadYAML(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading snapshot %s", path)
	}
	doc, err := ParseYAML(data, filepath.Dir(path), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing snapshot %s", path)
	}
	return doc, nil
}

// ParseYAML decodes a snapshot document. Relative image paths resolve against dir.
func ParseYAML(data []byte, dir string, opts Options) (*Document, error) {
	var raw yamlDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	doc := &Document{}
	if raw.Model != nil {
		doc.Model = raw.Model.toModel(opts)
	}
	if raw.Collision != nil {
		doc.Collision = raw.Collision.toCollision()
	}
	if raw.Texture != nil {
		tex, err := raw.Texture.toTexture(dir)
		if err != nil {
			return nil, err
		}
		doc.Texture = tex
	}
	if raw.Motion != nil {
		doc.Motion = raw.Motion.toMotion()
	}
	return doc, nil
}

func (y *yamlModel) toModel(opts Options) *Model {
	m := &Model{
		Name:    y.Name,
		Path:    y.Path,
		ExtInfo: y.ExtInfo,
		Points:  y.Points,
		Attrs: Attributes{
			Normal:  y.Attributes.Normal,
			Tangent: y.Attributes.Tangent,
			Color:   y.Attributes.Color,
			Alpha:   y.Attributes.Alpha,
			AO:      y.Attributes.AO,
			UV0:     y.Attributes.UV0,
			UV1:     y.Attributes.UV1,
		},
		Materials: make(map[string]Material, len(y.Materials)),
	}
	if m.Path == "" {
		m.Path = m.Name
	}

	for _, t := range y.Triangles {
		m.Triangles = append(m.Triangles, Triangle{Points: t.Points, Material: t.Material})
	}
	for _, ym := range y.Materials {
		m.Materials[ym.Path] = ym.toMaterial()
	}

	if y.Skin != nil {
		sb := &SkinBinding{Influences: make([][]skin.Influence, len(y.Skin.Influences))}
		for _, b := range y.Skin.Bones {
			sb.Bones = append(sb.Bones, BoneName(b))
		}
		for i, infl := range y.Skin.Influences {
			for _, iw := range infl {
				sb.Influences[i] = append(sb.Influences[i], skin.Influence{Bone: iw.Bone, Weight: iw.Weight})
			}
		}
		m.Skin = sb

		// A skeleton is only meaningful for skinned geometry.
		if y.Skeleton != nil {
			root := y.Skeleton.toJoint()
			if opts.SkeletonRoot != "" {
				root = root.Find(opts.SkeletonRoot)
			}
			m.Skeleton = Flatten(root)
		}
	}
	return m
}

func (y *yamlMaterial) toMaterial() Material {
	m := DefaultMaterial(y.Path)
	if y.Schema != "" {
		m.Schema = y.Schema
	}
	if y.BaseColor != nil {
		m.BaseColor = *y.BaseColor
	}
	if y.SpecColor != nil {
		m.SpecColor = *y.SpecColor
	}
	if y.Roughness != nil {
		m.Roughness = *y.Roughness
	}
	if y.IOR != nil {
		m.IOR = *y.IOR
	}
	if y.BumpScale != nil {
		m.BumpScale = *y.BumpScale
	}
	m.Flags.Set(FlagDoubleSided, y.DoubleSided)
	m.Flags.Set(FlagSemiTransparent, y.SemiTransparent)
	m.Flags.Set(FlagFlipTangent, y.FlipTangent)
	m.Flags.Set(FlagFlipBitangent, y.FlipBitangent)
	m.BaseMap = y.BaseMap
	m.Ext = y.Ext
	return m.Resolve()
}

func (y *yamlJoint) toJoint() *Joint {
	j := &Joint{Name: y.Name, Local: mgl32.Ident4()}
	if y.Local != nil {
		j.Local = *y.Local
	}
	for _, c := range y.Children {
		j.Children = append(j.Children, c.toJoint())
	}
	return j
}

func (y *yamlCollision) toCollision() *Collision {
	c := &Collision{Name: y.Name, Path: y.Path, Points: y.Points}
	if c.Path == "" {
		c.Path = c.Name
	}
	for _, p := range y.Polygons {
		c.Polygons = append(c.Polygons, Polygon(p))
	}
	return c
}

func (y *yamlTexture) toTexture(dir string) (*Texture, error) {
	if y.Image != "" {
		path := y.Image
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		tex, err := LoadTexture(path)
		if err != nil {
			return nil, err
		}
		if y.Name != "" {
			tex.Name = y.Name
		}
		if y.Path != "" {
			tex.Path = y.Path
		}
		return tex, nil
	}

	n := y.Width * y.Height
	if n <= 0 || len(y.C) != n*3 {
		return nil, errors.Errorf("texture %q: color plane has %d floats, want %d", y.Name, len(y.C), n*3)
	}
	if y.A != nil && len(y.A) != n {
		return nil, errors.Errorf("texture %q: alpha plane has %d floats, want %d", y.Name, len(y.A), n)
	}
	return &Texture{Name: y.Name, Path: y.Path, Width: y.Width, Height: y.Height, C: y.C, A: y.A}, nil
}

func (y *yamlMotion) toMotion() *Motion {
	m := &Motion{Name: y.Name, Path: y.Path}
	for _, t := range y.Tracks {
		m.Tracks = append(m.Tracks, Track{Name: t.Name, Samples: t.Samples})
	}
	return m
}

// LoadMotion reads the motion section of a snapshot document.
func LoadMotion(path string) (*Motion, error) {
	doc, err := LoadYAML(path, Options{})
	if err != nil {
		return nil, err
	}
	if doc.Motion == nil {
		return nil, errors.Wrapf(ErrNoResource, "%s has no motion section", path)
	}
	return doc.Motion, nil
}
