package manifest

import (
	"fmt"
	"path/filepath"
)

// Document is the format-neutral content of a manifest file.
type Document struct {
	Links        *Links
	Dependencies []Dependency

	// LegacyRepo is the deprecated top-level "repo" property. It is read so
	// that a warning can be emitted and is never written back.
	LegacyRepo string
}

// Codec reads and writes one on-disk manifest format.
type Codec interface {
	// Type returns the format identifier (e.g., "yaml", "toml").
	Type() string
	// FileName returns the canonical manifest file name for this format.
	FileName() string
	// Supports reports whether this codec handles the given filename.
	Supports(filename string) bool
	// Decode parses manifest bytes.
	Decode(data []byte) (*Document, error)
	// Encode serializes a document.
	Encode(doc *Document) ([]byte, error)
}

// DetectCodec finds a codec that supports the given file path.
// Returns an error if no codec matches.
func DetectCodec(path string, codecs ...Codec) (Codec, error) {
	name := filepath.Base(path)
	for _, c := range codecs {
		if c.Supports(name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unsupported manifest: %s", name)
}

// CodecByType returns the codec with the given type identifier.
func CodecByType(typ string, codecs ...Codec) (Codec, error) {
	for _, c := range codecs {
		if c.Type() == typ {
			return c, nil
		}
	}
	return nil, fmt.Errorf("unknown manifest format: %s", typ)
}

// DefaultCodecs returns the built-in codecs in lookup order.
func DefaultCodecs() []Codec {
	return []Codec{YAMLCodec{}, TOMLCodec{}}
}
