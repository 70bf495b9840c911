package annotation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/sprintseq/config"
)

func snpEffInstall(t *testing.T) (binary, cfg string) {
	t.Helper()
	root := t.TempDir()
	scripts := filepath.Join(root, "scripts")
	if err := os.MkdirAll(scripts, 0755); err != nil {
		t.Fatal(err)
	}
	binary = filepath.Join(scripts, "snpEff")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\ncat\n"), 0755); err != nil {
		t.Fatal(err)
	}
	cfg = filepath.Join(root, "snpEff.config")
	if err := os.WriteFile(cfg, []byte("data.dir = ./data/\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return binary, cfg
}

func TestDiscoverConfig(t *testing.T) {
	binary, cfg := snpEffInstall(t)
	got, err := DiscoverConfig(binary)
	if err != nil {
		t.Fatalf("DiscoverConfig: %v", err)
	}
	if got != cfg {
		t.Errorf("DiscoverConfig = %q, want %q", got, cfg)
	}
}

func TestDiscoverConfigMissing(t *testing.T) {
	if _, err := DiscoverConfig(filepath.Join(t.TempDir(), "scripts", "snpEff")); err == nil {
		t.Fatal("expected error when snpEff.config is absent")
	}
}

func TestPipeCommand(t *testing.T) {
	binary, cfg := snpEffInstall(t)

	tools := config.Tools{SnpEff: binary, SnpEffGenome: "GRCh38.86"}
	got, err := PipeCommand(tools)
	if err != nil {
		t.Fatalf("PipeCommand: %v", err)
	}
	want := binary + " -c " + cfg + " GRCh38.86"
	if got != want {
		t.Errorf("PipeCommand = %q, want %q", got, want)
	}

	tools.SnpEffConfig = "/explicit/snpEff.config"
	got, err = PipeCommand(tools)
	if err != nil {
		t.Fatalf("PipeCommand with explicit config: %v", err)
	}
	if !strings.Contains(got, "-c /explicit/snpEff.config") {
		t.Errorf("explicit config not honoured: %q", got)
	}
}

func TestPipeCommandUnconfigured(t *testing.T) {
	if _, err := PipeCommand(config.Tools{}); err == nil {
		t.Error("expected error when snpEff is not configured")
	}
	binary, _ := snpEffInstall(t)
	if _, err := PipeCommand(config.Tools{SnpEff: binary}); err == nil {
		t.Error("expected error when no genome database is configured")
	}
}
