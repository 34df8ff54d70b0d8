// Package filecodec reads the YAML and JSON files the grader CLI is driven by
// (batch manifests, publisher lists).
package filecodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type decoder struct {
	name string
	fn   func([]byte, any) error
}

var (
	yamlDecoder = decoder{name: "yaml", fn: yaml.Unmarshal}
	jsonDecoder = decoder{name: "json", fn: json.Unmarshal}
)

var byExt = map[string]decoder{
	".yaml": yamlDecoder,
	".yml":  yamlDecoder,
	".json": jsonDecoder,
}

// DecodeFile reads path and decodes it into v. kind names the document in
// error messages ("manifest", "publishers file").
func DecodeFile(path, kind string, v any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%s path is empty", kind)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", kind, err)
	}
	return Decode(raw, filepath.Ext(path), kind, v)
}

// Decode picks the decoder from ext. A known extension reports that decoder's
// error as-is; without an extension YAML and JSON are both tried.
func Decode(data []byte, ext, kind string, v any) error {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		var errs []error
		for _, d := range []decoder{jsonDecoder, yamlDecoder} {
			err := d.fn(data, v)
			if err == nil {
				return nil
			}
			errs = append(errs, fmt.Errorf("as %s: %w", d.name, err))
		}
		return fmt.Errorf("decode %s: %w", kind, errors.Join(errs...))
	}

	d, ok := byExt[ext]
	if !ok {
		return fmt.Errorf("%s has unsupported extension %q (expected .yaml, .yml or .json)", kind, ext)
	}
	if err := d.fn(data, v); err != nil {
		return fmt.Errorf("decode %s %s: %w", d.name, kind, err)
	}
	return nil
}
