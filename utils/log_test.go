package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	l, err := NewRunLog(path)
	if err != nil {
		t.Fatalf("NewRunLog: %v", err)
	}
	l.Started("VARIANT CALLING", "freebayes", "chr1:0-1000", "freebayes ...")
	l.Completed("VARIANT CALLING", "freebayes", "chr1:0-1000")
	l.Started("VARIANT CALLING", "freebayes", "chr2:0-500", "freebayes ...")
	l.Failed("VARIANT CALLING", "freebayes", "chr2:0-500", errors.New("exit status 1"))
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := ParseLogFile(path)
	if err != nil {
		t.Fatalf("ParseLogFile: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	if !StageHasCompleted(entries, "freebayes", "chr1:0-1000") {
		t.Error("chr1:0-1000 should be completed")
	}
	if StageHasCompleted(entries, "freebayes", "chr2:0-500") {
		t.Error("chr2:0-500 only started and failed, must not count as completed")
	}
	if StageHasCompleted(entries, "lumpy", "chr1:0-1000") {
		t.Error("completion must be keyed by program as well as window")
	}
}

func TestParseLogFileMissing(t *testing.T) {
	entries, err := ParseLogFile(filepath.Join(t.TempDir(), "absent.log"))
	if err != nil {
		t.Fatalf("missing log should not be an error, got %v", err)
	}
	if entries != nil {
		t.Errorf("got %d entries from a missing log", len(entries))
	}
}

func TestParseLogFileToleratesForeignLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	content := `garbage line
{"time":"2025-06-18T21:11:02Z","level":"INFO","msg":"VARIANT CALLING","PROGRAM":"freebayes","WINDOW":"chr1:0-10","STATUS":"COMPLETED"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	entries, err := ParseLogFile(path)
	if err != nil {
		t.Fatalf("ParseLogFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if !StageHasCompleted(entries, "freebayes", "chr1:0-10") {
		t.Error("valid entry after a garbage line was lost")
	}
}

func TestFilesExist(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "a.bam")
	if err := os.WriteFile(ok, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := FilesExist(ok); err != nil {
		t.Errorf("FilesExist(existing) = %v", err)
	}
	if err := FilesExist(ok, filepath.Join(dir, "missing.bam")); err == nil {
		t.Error("expected error for a missing file")
	}
	if err := FilesExist(dir); err == nil {
		t.Error("expected error for a directory")
	}
	if err := FilesExist(""); err == nil {
		t.Error("expected error for an empty path")
	}
}

func TestMakeTempDirCleanup(t *testing.T) {
	base := t.TempDir()
	dir, cleanup, err := MakeTempDir(base, "sprintseq_*")
	if err != nil {
		t.Fatalf("MakeTempDir: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("temp dir was not created: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0.vcf"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cleanup left the temp tree behind")
	}
}
