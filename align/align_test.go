package align

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/sprintseq/config"
)

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return p
}

// stubTools builds fake aligner/classifier/sorter executables that move a
// fixed set of records through the real named-pipe fan-out.
func stubTools(t *testing.T, dir string) config.Tools {
	t.Helper()
	bwa := writeStub(t, dir, "bwa", `#!/bin/sh
printf 'read1\tprimary\n'
printf 'read2\tprimary\n'
`)
	samblaster := writeStub(t, dir, "samblaster", `#!/bin/sh
s=""; d=""
while [ $# -gt 0 ]; do
  case "$1" in
    -s) s=$2; shift 2;;
    -d) d=$2; shift 2;;
    *) shift;;
  esac
done
printf 'read3\tsplit\n' > "$s" &
printf 'read4\tdisc\n' > "$d" &
cat
wait
`)
	samtools := writeStub(t, dir, "samtools", `#!/bin/sh
cmd=$1; shift
case "$cmd" in
view)
  for last; do :; done
  if [ "$last" = "-" ]; then cat; else cat "$last"; fi
  ;;
sort)
  out=""
  while [ $# -gt 0 ]; do
    if [ "$1" = "-o" ]; then out=$2; shift 2; continue; fi
    shift
  done
  cat > "$out"
  ;;
index)
  touch "$1.bai"
  ;;
esac
`)
	return config.Tools{BWA: bwa, Samblaster: samblaster, Samtools: samtools}
}

func TestRunThreeStreams(t *testing.T) {
	dir := t.TempDir()
	tools := stubTools(t, dir)
	prefix := filepath.Join(dir, "sample")

	req := Request{
		Reference: "ref.fa",
		Reads:     []string{"in.fq"},
		ReadGroup: `@RG\tID:x\tSM:y`,
		OutPrefix: prefix,
		TempDir:   dir,
		Threads:   1,
	}
	if err := Run(tools, req); err != nil {
		t.Fatalf("Run: %v", err)
	}

	full, err := os.ReadFile(prefix + ".bam")
	if err != nil {
		t.Fatalf("full output missing: %v", err)
	}
	spl, err := os.ReadFile(prefix + ".splitters.bam")
	if err != nil {
		t.Fatalf("splitters output missing: %v", err)
	}
	disc, err := os.ReadFile(prefix + ".discordants.bam")
	if err != nil {
		t.Fatalf("discordants output missing: %v", err)
	}

	// 2 primary + 1 split + 1 disc in, 4 records out across the streams
	total := strings.Count(string(full), "\n") + strings.Count(string(spl), "\n") + strings.Count(string(disc), "\n")
	if total != 4 {
		t.Errorf("streams carry %d records, want 4 (partitioned, not dropped)", total)
	}
	if !strings.Contains(string(spl), "split") {
		t.Errorf("splitters stream = %q, want the split-read record", spl)
	}
	if !strings.Contains(string(disc), "disc") {
		t.Errorf("discordants stream = %q, want the discordant record", disc)
	}

	for _, suffix := range []string{".bam.bai", ".splitters.bam.bai", ".discordants.bam.bai"} {
		if _, err := os.Stat(prefix + suffix); err != nil {
			t.Errorf("index %s missing: %v", suffix, err)
		}
	}
}

func TestRunRequiresReadGroup(t *testing.T) {
	dir := t.TempDir()
	tools := stubTools(t, dir)
	req := Request{
		Reference: "ref.fa",
		Reads:     []string{"in.fq"},
		OutPrefix: filepath.Join(dir, "out"),
		TempDir:   dir,
	}
	err := Run(tools, req)
	if err == nil {
		t.Fatal("expected error for missing read group")
	}
	if !strings.Contains(err.Error(), "read group") {
		t.Errorf("error %q does not mention the read group", err)
	}
}

func TestMakeFifosIdempotent(t *testing.T) {
	dir := t.TempDir()
	spl1, disc1, err := makeFifos(dir)
	if err != nil {
		t.Fatalf("first makeFifos: %v", err)
	}
	spl2, disc2, err := makeFifos(dir)
	if err != nil {
		t.Fatalf("second makeFifos over existing pipes: %v", err)
	}
	if spl1 != spl2 || disc1 != disc2 {
		t.Error("fifo paths must be stable across calls")
	}
}

func TestLegCommandsFlags(t *testing.T) {
	tools := config.Tools{BWA: "/t/bwa", Samblaster: "/t/samblaster", Samtools: "/t/samtools"}
	req := Request{
		Reference:         "ref.fa",
		Reads:             []string{"r.fq"},
		ReadGroup:         `@RG\tID:x`,
		OutPrefix:         "out",
		Threads:           4,
		Interleaved:       true,
		IncludeDuplicates: true,
		MaxSplitCount:     2,
		MinNonOverlap:     20,
	}
	legs := legCommands(tools, req, "spl", "disc", "tmp")
	if len(legs) != 3 {
		t.Fatalf("got %d legs, want 3", len(legs))
	}
	main := legs[0]
	if !strings.Contains(main, "-p") {
		t.Error("interleaved flag not passed to the aligner")
	}
	if strings.Contains(main, "--excludeDups") {
		t.Error("include-duplicates must drop --excludeDups")
	}
	if !strings.Contains(main, "--maxSplitCount 2") || !strings.Contains(main, "--minNonOverlap 20") {
		t.Errorf("split thresholds missing from classifier command: %s", main)
	}
	if !strings.Contains(legs[1], "spl") || !strings.Contains(legs[2], "disc") {
		t.Error("side legs must read from their pipes")
	}
}
