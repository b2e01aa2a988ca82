package sidecar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"modsuite/internal/manifest"
)

// EncodeJSON renders rec as indented JSON with a trailing newline. Non-ASCII
// text is written as-is.
func EncodeJSON(rec manifest.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode json sidecar: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeYAML re-encodes JSON bytes as block-style YAML. Key order and values
// are taken from the JSON document itself, so the two sidecars always agree.
func EncodeYAML(jsonData []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("parse json sidecar: %w", err)
	}
	blockStyle(&doc)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode yaml sidecar: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml sidecar: %w", err)
	}
	return buf.Bytes(), nil
}

// blockStyle drops the flow and quoting styles inherited from JSON. The
// encoder re-quotes strings whose plain form would resolve to another type.
func blockStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			n.Style = 0
		}
	}
	for _, child := range n.Content {
		blockStyle(child)
	}
}

// decodeYAML converts a YAML sidecar into the equivalent JSON document.
func decodeYAML(data []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("document is empty")
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, fmt.Errorf("top-level value is %T, want mapping", raw)
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return out, nil
}
