// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vixen-tools/vixen/lib/typedesc"
)

// Config is the master configuration for vixen.
type Config struct {
	// Limits bounds the decode safety checks.
	Limits LimitsConfig `yaml:"limits"`

	// Blob configures companion-file externalization on export.
	Blob BlobConfig `yaml:"blob"`
}

// LimitsConfig bounds structure sizes accepted during decode. Zero
// values mean the built-in defaults.
type LimitsConfig struct {
	// TypedescListLimit caps the consolidated type table length.
	TypedescListLimit int `yaml:"typedesc_list_limit"`

	// ArrayDataLimit caps the total element count of one array value.
	ArrayDataLimit int `yaml:"array_data_limit"`

	// StoreAsDataAbove is the byte threshold over which flat numeric
	// array content collapses into one opaque blob.
	StoreAsDataAbove int `yaml:"store_as_data_above"`

	// ConnectorListLimit caps list counts inside refnum payloads.
	ConnectorListLimit int `yaml:"connector_list_limit"`
}

// BlobConfig configures how large binary runs leave the XML tree.
type BlobConfig struct {
	// Compression is the companion-file codec: "none", "lz4" or
	// "zstd". Default: none.
	Compression string `yaml:"compression"`

	// ExternalizeAbove is the byte threshold over which a blob is
	// written to a companion file instead of inline hex. Zero means
	// the store_as_data_above limit.
	ExternalizeAbove int `yaml:"externalize_above"`
}

// Default returns the default configuration. The zero limit values
// defer to the decode layer's built-in bounds.
func Default() *Config {
	return &Config{
		Blob: BlobConfig{Compression: "none"},
	}
}

// Load loads configuration from the VIXEN_CONFIG environment
// variable, falling back to defaults when it is unset.
func Load() (*Config, error) {
	path := os.Getenv("VIXEN_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merged
// over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values that yaml decoding cannot.
func (c *Config) Validate() error {
	switch c.Blob.Compression {
	case "", "none", "lz4", "zstd":
	default:
		return fmt.Errorf("blob.compression %q: want none, lz4 or zstd", c.Blob.Compression)
	}
	for name, v := range map[string]int{
		"limits.typedesc_list_limit":  c.Limits.TypedescListLimit,
		"limits.array_data_limit":     c.Limits.ArrayDataLimit,
		"limits.store_as_data_above":  c.Limits.StoreAsDataAbove,
		"limits.connector_list_limit": c.Limits.ConnectorListLimit,
		"blob.externalize_above":      c.Blob.ExternalizeAbove,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

// ExternalizeThreshold returns the effective companion-file
// threshold: blob.externalize_above when set, otherwise
// limits.store_as_data_above, otherwise the decode layer's built-in
// store-as-data bound.
func (c *Config) ExternalizeThreshold() int {
	if c.Blob.ExternalizeAbove > 0 {
		return c.Blob.ExternalizeAbove
	}
	if c.Limits.StoreAsDataAbove > 0 {
		return c.Limits.StoreAsDataAbove
	}
	return 127
}

// DecodeLimits converts the configured bounds into the decode
// layer's limits, leaving zeros for its defaults to fill.
func (c *Config) DecodeLimits() typedesc.Limits {
	return typedesc.Limits{
		TypeListLimit:      c.Limits.TypedescListLimit,
		ArrayDataLimit:     c.Limits.ArrayDataLimit,
		StoreAsDataAbove:   c.Limits.StoreAsDataAbove,
		ConnectorListLimit: c.Limits.ConnectorListLimit,
	}
}
