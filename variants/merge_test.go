package variants

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gmaffy/sprintseq/config"
	"github.com/gmaffy/sprintseq/windows"
)

const vcfHeader = "##fileformat=VCFv4.2\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

func writeWindowVcf(t *testing.T, dir string, i int, content string) string {
	t.Helper()
	p := filepath.Join(dir, "w"+string(rune('0'+i))+".vcf")
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestMergeWindowsLineCountInvariant(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeWindowVcf(t, dir, 0, vcfHeader+"chr1\t10\t.\tA\tT\t50\t.\t.\nchr1\t20\t.\tC\tG\t60\t.\t.\n"),
		filepath.Join(dir, "absent.vcf"), // task failed, no file
		writeWindowVcf(t, dir, 2, ""),    // task produced an empty file
		writeWindowVcf(t, dir, 3, vcfHeader+"chr2\t5\t.\tG\tA\t70\t.\t.\n"),
	}

	var sb strings.Builder
	body, skipped, err := MergeWindows(paths, nil, &sb)
	if err != nil {
		t.Fatalf("MergeWindows: %v", err)
	}
	if body != 3 {
		t.Errorf("body = %d, want 3 (sum over produced windows)", body)
	}
	if len(skipped) != 2 {
		t.Errorf("skipped = %v, want the missing and the empty window", skipped)
	}

	out := sb.String()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	header := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "#") {
			header++
		}
	}
	if header != 2 {
		t.Errorf("header emitted %d times worth of lines, want exactly one 2-line header", header)
	}
	if len(lines)-header != body {
		t.Errorf("output body lines = %d, want %d", len(lines)-header, body)
	}
	// enumeration order before the external sort
	if !strings.Contains(out, "chr1\t10") || strings.Index(out, "chr1\t10") > strings.Index(out, "chr2\t5") {
		t.Error("window bodies out of enumeration order")
	}
}

func TestMergeWindowsAllFailed(t *testing.T) {
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.vcf"), filepath.Join(dir, "b.vcf")}
	var sb strings.Builder
	if _, _, err := MergeWindows(paths, nil, &sb); err == nil {
		t.Fatal("expected error when no window produced output")
	}
}

func TestMergeWindowsHeaderOnlyOutputIsValid(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeWindowVcf(t, dir, 0, vcfHeader)}
	var sb strings.Builder
	body, _, err := MergeWindows(paths, nil, &sb)
	if err != nil {
		t.Fatalf("MergeWindows: %v", err)
	}
	if body != 0 {
		t.Errorf("body = %d, want 0", body)
	}
	if !strings.HasPrefix(sb.String(), "##fileformat") {
		t.Error("header missing from header-only merge")
	}
}

func TestMergeWindowsQualFilter(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeWindowVcf(t, dir, 0, vcfHeader+
		"chr1\t10\t.\tA\tT\t5\t.\t.\n"+
		"chr1\t20\t.\tC\tG\t19.9\t.\t.\n"+
		"chr1\t30\t.\tT\tA\t20\t.\t.\n"+
		"chr1\t40\t.\tG\tC\t100\t.\t.\n")}

	var sb strings.Builder
	body, _, err := MergeWindows(paths, QualAtLeast(20), &sb)
	if err != nil {
		t.Fatalf("MergeWindows: %v", err)
	}
	if body != 2 {
		t.Errorf("body = %d, want 2: records below the quality floor must be excluded even though the caller emitted them", body)
	}
	if strings.Contains(sb.String(), "chr1\t20") {
		t.Error("QUAL 19.9 record survived a floor of 20")
	}
	if !strings.Contains(sb.String(), "chr1\t30") {
		t.Error("QUAL exactly at the floor must be kept")
	}
}

func TestQualAtLeastMalformed(t *testing.T) {
	keep := QualAtLeast(20)
	if !keep("chr1\t10\t.\tA\tT\t.\t.\t.") {
		t.Error("unparseable QUAL must not drop a record")
	}
	if !keep("short line") {
		t.Error("short record must not be dropped")
	}
}

func TestGermlineCommand(t *testing.T) {
	tools := config.Tools{Freebayes: "/t/freebayes"}
	w := windows.Window{Chrom: "chr1", Start: 0, End: 1000}
	cmd := GermlineCommand(tools, "ref.fa", []string{"a.bam", "b.bam"}, w, "/tmp/0.vcf")

	for _, want := range []string{"/t/freebayes", "-f ref.fa", "--region chr1:0-1000", "--min-repeat-entropy 1", "a.bam b.bam", "> /tmp/0.vcf"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}
}

func TestSomaticCommand(t *testing.T) {
	tools := config.Tools{Freebayes: "/t/freebayes"}
	w := windows.Window{Chrom: "chr2", Start: 100, End: 200}
	cmd := SomaticCommand(tools, "ref.fa", "normal.bam", "tumor.bam", 0.05, 2, w, "/tmp/1.vcf")

	for _, want := range []string{"--pooled-discrete", "--genotype-qualities", "-F 0.05", "-C 2", "normal.bam tumor.bam", "--region chr2:100-200"} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command %q missing %q", cmd, want)
		}
	}
}
