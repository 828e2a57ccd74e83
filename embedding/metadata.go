package embedding

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Metadata is free-form TOML describing how embeddings were trained.
type Metadata map[string]any

// ParseMetadata decodes a TOML document.
func ParseMetadata(data []byte) (Metadata, error) {
	m := Metadata{}
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("embedding: parse metadata: %w", err)
	}
	return m, nil
}

// MarshalTOML encodes the metadata as a TOML document.
func (m Metadata) MarshalTOML() ([]byte, error) {
	data, err := toml.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("embedding: encode metadata: %w", err)
	}
	return data, nil
}
