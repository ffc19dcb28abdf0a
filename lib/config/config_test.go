// Copyright 2026 The Vixen Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vixen.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Blob.Compression != "none" {
		t.Errorf("default compression = %q, want none", cfg.Blob.Compression)
	}
	limits := cfg.DecodeLimits()
	if limits.ArrayDataLimit != 0 {
		t.Errorf("default limits must defer to the decode layer, got %+v", limits)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
limits:
  array_data_limit: 1024
  store_as_data_above: 64
blob:
  compression: zstd
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Limits.ArrayDataLimit != 1024 {
		t.Errorf("array_data_limit = %d, want 1024", cfg.Limits.ArrayDataLimit)
	}
	if cfg.Limits.StoreAsDataAbove != 64 {
		t.Errorf("store_as_data_above = %d, want 64", cfg.Limits.StoreAsDataAbove)
	}
	if cfg.Blob.Compression != "zstd" {
		t.Errorf("compression = %q, want zstd", cfg.Blob.Compression)
	}
	// Unset fields keep their defaults.
	if cfg.Limits.TypedescListLimit != 0 {
		t.Errorf("typedesc_list_limit = %d, want default 0", cfg.Limits.TypedescListLimit)
	}
}

func TestLoadFileRejectsBadCompression(t *testing.T) {
	path := writeConfig(t, "blob:\n  compression: brotli\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("unknown compression must be rejected")
	}
}

func TestLoadFileRejectsNegativeLimit(t *testing.T) {
	path := writeConfig(t, "limits:\n  array_data_limit: -1\n")
	if _, err := LoadFile(path); err == nil {
		t.Error("negative limit must be rejected")
	}
}

func TestLoadWithoutEnvUsesDefaults(t *testing.T) {
	t.Setenv("VIXEN_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Blob.Compression != "none" {
		t.Errorf("compression = %q, want none", cfg.Blob.Compression)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Setenv("VIXEN_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Error("pointing VIXEN_CONFIG at a missing file must fail")
	}
}

func TestDecodeLimitsMapping(t *testing.T) {
	cfg := Default()
	cfg.Limits.TypedescListLimit = 7
	cfg.Limits.ConnectorListLimit = 9
	limits := cfg.DecodeLimits()
	if limits.TypeListLimit != 7 || limits.ConnectorListLimit != 9 {
		t.Errorf("limits = %+v", limits)
	}
}

func TestExternalizeThreshold(t *testing.T) {
	cfg := Default()
	if got := cfg.ExternalizeThreshold(); got != 127 {
		t.Errorf("default threshold = %d, want 127", got)
	}

	cfg.Limits.StoreAsDataAbove = 64
	if got := cfg.ExternalizeThreshold(); got != 64 {
		t.Errorf("threshold = %d, want store_as_data_above 64", got)
	}

	cfg.Blob.ExternalizeAbove = 4096
	if got := cfg.ExternalizeThreshold(); got != 4096 {
		t.Errorf("threshold = %d, want explicit 4096", got)
	}
}
