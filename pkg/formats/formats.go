// Package formats builds the binary and text resource files produced by the exporter.
package formats

import (
	"errors"
	"fmt"

	"github.com/Faultbox/gwexport/pkg/encoding"
	"github.com/Faultbox/gwexport/pkg/strtab"
)

// Shared builder errors.
var (
	ErrEmptyGeometry = errors.New("no valid geometry to export")
	ErrBadIndex      = errors.New("index out of range")
)

// InvariantError reports a broken internal invariant. It is not recoverable:
// the batch that produced it must stop.
type InvariantError struct {
	Resource string
	Detail   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Resource, e.Detail)
}

// Kind tags a catalog entry with the resource type.
type Kind int32

// Resource kinds.
const (
	KindCatalog   Kind = 0
	KindModel     Kind = 1
	KindCollision Kind = 2
	KindDDS       Kind = 0x100
	KindTDMot     Kind = 0x101
	KindTDGeo     Kind = 0x102
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindCatalog:
		return "CATALOG"
	case KindModel:
		return "MODEL"
	case KindCollision:
		return "COLLISION"
	case KindDDS:
		return "DDS"
	case KindTDMot:
		return "TDMOT"
	case KindTDGeo:
		return "TDGEO"
	default:
		return fmt.Sprintf("Unknown(%#x)", int32(k))
	}
}

// File extensions of the produced resources.
const (
	ExtModel     = ".gwmdl"
	ExtCollision = ".gwcls"
	ExtCatalog   = ".gwcat"
	ExtDDS       = ".dds"
	ExtMotion    = ".txt"
)

// Resource format versions.
const (
	ModelVersion     = 0x0100
	CollisionVersion = 0x0100
	CatalogVersion   = 0x0100
)

// Option configures a builder.
type Option func(*options)

type options struct {
	enc        encoding.Encoder
	onTruncate func(point, dropped int)
}

// WithEncoder stores interned strings in the given charset.
func WithEncoder(enc encoding.Encoder) Option {
	return func(o *options) { o.enc = enc }
}

// WithTruncationHook is called for every point whose influences were cut to four.
func WithTruncationHook(fn func(point, dropped int)) Option {
	return func(o *options) { o.onTruncate = fn }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) table() *strtab.Table {
	if o.enc != nil {
		return strtab.NewWithEncoder(o.enc)
	}
	return strtab.New()
}
