// Package encoding provides text encoding utilities for names stored in resource string tables.
package encoding

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// UTF8 is the charset name that leaves strings untouched.
const UTF8 = "utf-8"

// Encoder converts a UTF-8 name into the bytes stored in a resource file.
type Encoder interface {
	Encode(s string) []byte
}

// passthrough stores strings as their raw UTF-8 bytes.
type passthrough struct{}

func (passthrough) Encode(s string) []byte { return []byte(s) }

// charsetEncoder wraps an x/text encoding.
type charsetEncoder struct {
	enc encoding.Encoding
}

// Encode converts s into the target charset.
// Returns the original bytes if conversion fails.
func (c charsetEncoder) Encode(s string) []byte {
	result, _, err := transform.Bytes(c.enc.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// Lookup returns the encoder for a charset name.
// Accepts "utf-8", "euc-kr" and any charmap name known to x/text (e.g. "Windows 1252").
func Lookup(name string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", UTF8, "utf8":
		return passthrough{}, nil
	case "euc-kr", "euckr":
		return charsetEncoder{enc: korean.EUCKR}, nil
	}

	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if strings.EqualFold(cm.String(), name) {
				return charsetEncoder{enc: cm}, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown string encoding %q", name)
}

// Names lists the supported charset names.
func Names() []string {
	list := []string{UTF8, "euc-kr"}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

// NormalizePath converts host paths to forward slashes.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
