package config

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Tools maps every external program the pipelines shell out to onto an
// executable path. It is built once at startup, from a config file and/or
// $PATH probing, and never mutated afterwards.
type Tools struct {
	BWA        string
	Samblaster string
	Samtools   string
	Freebayes  string
	Gsort      string
	Bgzip      string
	Tabix      string
	SnpEff     string
	Lumpy      string

	SnpEffConfig string
	SnpEffGenome string
}

// Logical tool names accepted by Verify and Path.
const (
	BWA        = "bwa"
	Samblaster = "samblaster"
	Samtools   = "samtools"
	Freebayes  = "freebayes"
	Gsort      = "gsort"
	Bgzip      = "bgzip"
	Tabix      = "tabix"
	SnpEff     = "snpEff"
	Lumpy      = "lumpy"
)

func Read(configPath string) (Tools, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return Tools{}, err
	}
	defer configFile.Close()
	var t Tools

	scanner := bufio.NewScanner(configFile)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "bwa":
			t.BWA = value
		case "samblaster":
			t.Samblaster = value
		case "samtools":
			t.Samtools = value
		case "freebayes":
			t.Freebayes = value
		case "gsort":
			t.Gsort = value
		case "bgzip":
			t.Bgzip = value
		case "tabix":
			t.Tabix = value
		case "snpEff":
			t.SnpEff = value
		case "snpEff_config":
			t.SnpEffConfig = value
		case "snpEff_genome":
			t.SnpEffGenome = value
		case "lumpy":
			t.Lumpy = value
		}
	}

	if err := scanner.Err(); err != nil {
		return t, err
	}

	return t, nil
}

// Probe fills every still-empty tool path from $PATH. A program that is not
// found stays empty; Verify decides later whether that matters for the
// selected pipeline.
func (t *Tools) Probe() {
	fields := []struct {
		name string
		dst  *string
	}{
		{BWA, &t.BWA},
		{Samblaster, &t.Samblaster},
		{Samtools, &t.Samtools},
		{Freebayes, &t.Freebayes},
		{Gsort, &t.Gsort},
		{Bgzip, &t.Bgzip},
		{Tabix, &t.Tabix},
		{SnpEff, &t.SnpEff},
		{Lumpy, &t.Lumpy},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		if p, err := exec.LookPath(f.name); err == nil {
			*f.dst = p
		}
	}
}

// Resolve builds the registry for one invocation: config file first (when
// given), $PATH probing for anything the file did not pin.
func Resolve(configPath string) (Tools, error) {
	var t Tools
	if configPath != "" {
		var err error
		t, err = Read(configPath)
		if err != nil {
			return Tools{}, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}
	t.Probe()
	return t, nil
}

// Path returns the executable path registered for a logical tool name.
func (t Tools) Path(name string) string {
	switch name {
	case BWA:
		return t.BWA
	case Samblaster:
		return t.Samblaster
	case Samtools:
		return t.Samtools
	case Freebayes:
		return t.Freebayes
	case Gsort:
		return t.Gsort
	case Bgzip:
		return t.Bgzip
	case Tabix:
		return t.Tabix
	case SnpEff:
		return t.SnpEff
	case Lumpy:
		return t.Lumpy
	}
	return ""
}

// Verify checks that every tool the selected pipeline needs resolved to an
// existing executable. A miss here is a configuration error: nothing may have
// run yet when Verify fails.
func (t Tools) Verify(required ...string) error {
	var missing []string
	for _, name := range required {
		p := t.Path(name)
		if p == "" {
			missing = append(missing, name)
			continue
		}
		info, err := os.Stat(p)
		if err != nil || info.IsDir() || info.Mode()&0111 == 0 {
			missing = append(missing, fmt.Sprintf("%s (%s)", name, p))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found or not executable: %s", strings.Join(missing, ", "))
	}
	return nil
}
