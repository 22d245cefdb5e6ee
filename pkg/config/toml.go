package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// LoadTOML reads a TOML file and flattens it into a Provider.
// Nested tables become colon paths; arrays are joined with commas.
func LoadTOML(path string) (Provider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseTOML(b)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return p, nil
}

// ParseTOML flattens an in-memory TOML document.
func ParseTOML(data []byte) (Provider, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	out := mapProvider{}
	flatten(out, "", doc)
	return out, nil
}

func flatten(dst mapProvider, prefix string, tree map[string]any) {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + ":" + k
		}
		switch v := tree[k].(type) {
		case map[string]any:
			flatten(dst, path, v)
		case []any:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, scalar(item))
			}
			dst[normalize(path)] = strings.Join(parts, ",")
		default:
			dst[normalize(path)] = scalar(v)
		}
	}
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}
