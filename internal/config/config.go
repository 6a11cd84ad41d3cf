// Package config loads vntool settings from YAML or INI files and resolves
// them into an engine.Config.
package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/textenc"
)

// File is the on-disk configuration. Empty fields leave the defaults alone.
//
// YAML files use the keys below at top level with a nested "log" mapping;
// INI files put them in the default section with a [log] section.
type File struct {
	Engine         string `yaml:"engine"          ini:"engine"`
	Encoding       string `yaml:"encoding"        ini:"encoding"`
	OutputEncoding string `yaml:"output_encoding" ini:"output_encoding"`
	BOM            string `yaml:"bom"             ini:"bom"`
	Order          string `yaml:"order"           ini:"order"`
	Key            string `yaml:"key"             ini:"key"`
	KeyHex         string `yaml:"key_hex"         ini:"key_hex"`
	Strict         bool   `yaml:"strict"          ini:"strict"`
	Replacement    string `yaml:"replacement"     ini:"replacement"`
	Transform      string `yaml:"transform"       ini:"transform"`
	Workers        int    `yaml:"workers"         ini:"workers"`

	Log Log `yaml:"log" ini:"log"`
}

// Log holds logger settings.
type Log struct {
	File  string `yaml:"file"  ini:"file"`
	JSON  bool   `yaml:"json"  ini:"json"`
	Level string `yaml:"level" ini:"level"`
}

// Load reads path, choosing the parser by extension: .ini, .cfg and .conf
// are INI, anything else YAML. An empty path returns an empty File.
func Load(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".conf":
		return ParseINI(data)
	default:
		return ParseYAML(data)
	}
}

// ParseYAML decodes a YAML document. Unknown keys are rejected.
func ParseYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return &f, nil
}

// ParseINI decodes an INI document.
func ParseINI(data []byte) (*File, error) {
	src, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("config: parse ini: %w", err)
	}
	var f File
	if err := src.MapTo(&f); err != nil {
		return nil, fmt.Errorf("config: parse ini: %w", err)
	}
	return &f, nil
}

// Apply overlays the non-empty settings of f onto cfg.
func (f *File) Apply(cfg *engine.Config) error {
	if f.Engine != "" {
		cfg.Engine = engine.Tag(strings.ToLower(f.Engine))
	}
	if f.Encoding != "" {
		cs, err := textenc.ParseCharset(f.Encoding)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg.Encoding.Charset = cs
	}
	if f.BOM != "" {
		p, err := ParseBOM(f.BOM)
		if err != nil {
			return err
		}
		cfg.Encoding.BOM = p
	}
	if f.OutputEncoding != "" {
		cs, err := textenc.ParseCharset(f.OutputEncoding)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		out := cfg.Encoding
		out.Charset = cs
		cfg.OutputEncoding = &out
	}
	if f.Order != "" {
		o, err := binio.ParseOrder(strings.ToLower(f.Order))
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg.Order = &o
	}
	switch {
	case f.KeyHex != "":
		k, err := hex.DecodeString(f.KeyHex)
		if err != nil {
			return fmt.Errorf("config: key_hex: %w", err)
		}
		cfg.Key = k
	case f.Key != "":
		cfg.Key = []byte(f.Key)
	}
	if f.Strict {
		cfg.Strict = true
	}
	if f.Replacement != "" {
		r, err := ParseReplacement(f.Replacement)
		if err != nil {
			return err
		}
		cfg.Replacement = r
	}
	if f.Transform != "" {
		cfg.Transform = strings.ToLower(f.Transform)
	}
	if f.Workers > 0 {
		cfg.Workers = f.Workers
	}
	return nil
}

// ParseBOM resolves "detect", "strip" or "require".
func ParseBOM(s string) (textenc.BOMPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "detect":
		return textenc.BOMDetect, nil
	case "strip":
		return textenc.BOMStrip, nil
	case "require":
		return textenc.BOMRequire, nil
	default:
		return 0, fmt.Errorf("config: unknown bom policy %q", s)
	}
}

// ParseReplacement takes a single character.
func ParseReplacement(s string) (rune, error) {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || n != len(s) {
		return 0, fmt.Errorf("config: replacement must be one character, got %q", s)
	}
	return r, nil
}
