// Shared helpers for the qris CLI.
package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/riverscapes/qris/internal/store"
)

// projectStore resolves the --project flag to a store handle.
func projectStore() (*store.Store, error) {
	if flagProject == "" {
		return nil, errors.New("--project is required")
	}
	return store.New(flagProject), nil
}

// parseMetadata converts repeated key=value flags into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, errors.New("metadata must be key=value, got " + pair)
		}
		out[key] = value
	}
	return out, nil
}

// parseAnyMetadata is parseMetadata with the value type the attachment
// registry stores.
func parseAnyMetadata(pairs []string) (map[string]any, error) {
	parsed, err := parseMetadata(pairs)
	if err != nil || parsed == nil {
		return nil, err
	}
	out := make(map[string]any, len(parsed))
	for k, v := range parsed {
		out[k] = v
	}
	return out, nil
}

// parseID parses a positional numeric id argument.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
