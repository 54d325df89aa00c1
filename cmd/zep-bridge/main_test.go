package main

import (
	"path/filepath"
	"testing"
)

func TestConfigSearchPaths_Deduplicated(t *testing.T) {
	paths := configSearchPaths()
	if len(paths) == 0 {
		t.Fatal("expected at least one search path")
	}

	seen := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			t.Fatalf("Abs(%q): %v", p, err)
		}
		if seen[abs] {
			t.Errorf("duplicate search path %s", abs)
		}
		seen[abs] = true
	}
}

func TestConfigSearchPaths_IncludesWorkingDirCandidates(t *testing.T) {
	want := map[string]bool{
		"zep-bridge.toml":        false,
		"config/zep-bridge.toml": false,
	}
	for _, p := range configSearchPaths() {
		if _, ok := want[p]; ok {
			want[p] = true
		}
	}
	for p, found := range want {
		if !found {
			t.Errorf("expected %s in search paths", p)
		}
	}
}

func TestConfigPaths_Set(t *testing.T) {
	var c configPaths
	c.Set("a.toml")
	c.Set("b.toml")

	if len(c) != 2 || c[0] != "a.toml" || c[1] != "b.toml" {
		t.Errorf("unexpected paths %v", c)
	}
	if c.String() != "[a.toml b.toml]" {
		t.Errorf("unexpected String() %q", c.String())
	}
}
