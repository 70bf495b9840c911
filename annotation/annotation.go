package annotation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gmaffy/sprintseq/config"
)

// DiscoverConfig finds the snpEff.config that ships one directory above the
// snpEff launcher, the layout the installer produces.
func DiscoverConfig(snpEffPath string) (string, error) {
	scriptsDir := filepath.Dir(snpEffPath)
	snpEffDir := filepath.Dir(scriptsDir)
	configPath := filepath.Join(snpEffDir, "snpEff.config")

	if _, err := os.Stat(configPath); err != nil {
		return "", fmt.Errorf("tried to find snpEff config file at %s: it does not exist", configPath)
	}
	return configPath, nil
}

// PipeCommand returns the shell segment that annotates a VCF stream on its
// way from the sorter to the compressor.
func PipeCommand(tools config.Tools) (string, error) {
	if tools.SnpEff == "" {
		return "", fmt.Errorf("annotation requested but snpEff is not configured")
	}
	if tools.SnpEffGenome == "" {
		return "", fmt.Errorf("annotation requested but no snpEff genome database is configured (snpEff_genome)")
	}

	cfg := tools.SnpEffConfig
	if cfg == "" {
		var err error
		cfg, err = DiscoverConfig(tools.SnpEff)
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%s -c %s %s", tools.SnpEff, cfg, tools.SnpEffGenome), nil
}
