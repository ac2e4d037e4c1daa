package scene

import "github.com/go-gl/mathgl/mgl32"

// DefaultMaterialPath names the material that covers a model without material assignments.
const DefaultMaterialPath = "$sys/default"

// Schema selects which parameter set of a material is meaningful.
type Schema string

const (
	// SchemaClassic carries base, specular, roughness, IOR, bump and the tangent flags.
	SchemaClassic Schema = "classic"
	// SchemaPrincipled carries base color and roughness only.
	SchemaPrincipled Schema = "principled"
)

// MaterialFlags are the per-material bits stored in the model.
type MaterialFlags uint32

const (
	FlagDoubleSided MaterialFlags = 1 << iota
	FlagSemiTransparent
	FlagFlipTangent
	FlagFlipBitangent
)

// Set turns bit on or off.
func (f *MaterialFlags) Set(bit MaterialFlags, on bool) {
	if on {
		*f |= bit
	} else {
		*f &^= bit
	}
}

// Material is the parameter set of one material.
type Material struct {
	Path      string
	Schema    Schema
	BaseColor mgl32.Vec3
	SpecColor mgl32.Vec3
	Roughness float32
	IOR       float32
	BumpScale float32
	Flags     MaterialFlags
	BaseMap   string
	Ext       string
}

// DefaultMaterial returns the parameters used for unknown or unset materials.
func DefaultMaterial(path string) Material {
	return Material{
		Path:      path,
		Schema:    SchemaClassic,
		BaseColor: mgl32.Vec3{1, 1, 1},
		SpecColor: mgl32.Vec3{1, 1, 1},
		Roughness: 0.75,
		IOR:       1.33,
	}
}

// Fresnel returns the normal-incidence reflectance derived from the IOR.
func (m Material) Fresnel() float32 {
	r := (m.IOR - 1) / (m.IOR + 1)
	return r * r
}

// Resolve drops the parameters that the material's schema does not define.
// Flags are kept for every schema.
func (m Material) Resolve() Material {
	if m.Schema != SchemaPrincipled {
		return m
	}
	d := DefaultMaterial(m.Path)
	d.Schema = SchemaPrincipled
	d.BaseColor = m.BaseColor
	d.Roughness = m.Roughness
	d.BaseMap = m.BaseMap
	d.Ext = m.Ext
	d.Flags = m.Flags
	return d
}
