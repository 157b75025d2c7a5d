package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/alan/internal/planner"
)

// marshalPath converts a path to compact JSON TEXT, e.g. [[0,1],[0,1]].
func marshalPath(p planner.Path) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalPath parses JSON TEXT written by marshalPath.
func unmarshalPath(data string) (planner.Path, error) {
	var p planner.Path
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal path: %w", err)
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("unmarshal path: empty path")
	}
	return p, nil
}
