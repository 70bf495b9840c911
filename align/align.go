package align

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/gmaffy/sprintseq/config"
	"github.com/gmaffy/sprintseq/runner"
	"github.com/gmaffy/sprintseq/utils"
)

// Request carries the validated inputs for one align invocation.
type Request struct {
	Reference string
	Reads     []string // one file (interleaved or single-end) or two paired files
	ReadGroup string
	OutPrefix string
	TempDir   string
	Threads   int

	Interleaved       bool
	IncludeDuplicates bool
	MaxSplitCount     int
	MinNonOverlap     int

	Verbose bool
}

// makeFifos creates the two named pipes the classifier writes its split-read
// and discordant-read streams into. A pipe left behind by an earlier failed
// run is reused rather than treated as an error.
func makeFifos(dir string) (string, string, error) {
	splPipe := filepath.Join(dir, "spl_pipe")
	discPipe := filepath.Join(dir, "disc_pipe")
	for _, p := range []string{splPipe, discPipe} {
		if err := unix.Mkfifo(p, 0600); err != nil && err != unix.EEXIST {
			return "", "", fmt.Errorf("creating pipe %s: %w", p, err)
		}
	}
	return splPipe, discPipe, nil
}

// legCommands builds the three concurrent consumer chains. All three must be
// launched together: the classifier blocks on its pipes until both side
// streams have a reader.
func legCommands(tools config.Tools, req Request, splPipe, discPipe, sortTmp string) []string {
	var blaster strings.Builder
	blaster.WriteString(tools.Samblaster)
	if !req.IncludeDuplicates {
		blaster.WriteString(" --excludeDups")
	}
	if req.MaxSplitCount > 0 {
		fmt.Fprintf(&blaster, " --maxSplitCount %d", req.MaxSplitCount)
	}
	if req.MinNonOverlap > 0 {
		fmt.Fprintf(&blaster, " --minNonOverlap %d", req.MinNonOverlap)
	}
	fmt.Fprintf(&blaster, " -s %s -d %s", splPipe, discPipe)

	var bwa strings.Builder
	fmt.Fprintf(&bwa, "%s mem -t %d -M -R '%s'", tools.BWA, req.Threads, req.ReadGroup)
	if req.Interleaved {
		bwa.WriteString(" -p")
	}
	fmt.Fprintf(&bwa, " %s %s", req.Reference, strings.Join(req.Reads, " "))

	full := fmt.Sprintf("set -eo pipefail; %s | %s | %s view -Sub - | %s sort -T %s/full -o %s.bam -",
		bwa.String(), blaster.String(), tools.Samtools, tools.Samtools, sortTmp, req.OutPrefix)
	splitters := fmt.Sprintf("set -eo pipefail; %s view -Sub %s | %s sort -T %s/spl -o %s.splitters.bam -",
		tools.Samtools, splPipe, tools.Samtools, sortTmp, req.OutPrefix)
	discordants := fmt.Sprintf("set -eo pipefail; %s view -Sub %s | %s sort -T %s/disc -o %s.discordants.bam -",
		tools.Samtools, discPipe, tools.Samtools, sortTmp, req.OutPrefix)

	return []string{full, splitters, discordants}
}

// Run aligns the read files against the reference and produces three sorted,
// indexed BAMs: the full alignment plus the split-read and discordant-read
// subsets. The unsorted alignment stream never touches disk; the classifier
// fans it out through named pipes consumed concurrently by the three legs.
func Run(tools config.Tools, req Request) error {
	if strings.TrimSpace(req.ReadGroup) == "" {
		return fmt.Errorf("a read group (-R) is required")
	}
	if len(req.Reads) == 0 || len(req.Reads) > 2 {
		return fmt.Errorf("align takes one or two read files, got %d", len(req.Reads))
	}
	if req.Threads < 1 {
		req.Threads = 1
	}
	if err := tools.Verify(config.BWA, config.Samblaster, config.Samtools); err != nil {
		return err
	}

	tmp, cleanup, err := utils.MakeTempDir(req.TempDir, "sprintseq_align_*")
	if err != nil {
		return err
	}
	defer cleanup()

	splPipe, discPipe, err := makeFifos(tmp)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Aligning %s ...\n", strings.Join(req.Reads, " "))
	legs := legCommands(tools, req, splPipe, discPipe, tmp)
	results, err := runner.Run(legs, 3, req.Verbose)
	if err != nil {
		return err
	}
	if failed := runner.Failures(results); len(failed) > 0 {
		return fmt.Errorf("alignment failed: %v (command: %s)", failed[0].Err, failed[0].Command)
	}

	fmt.Fprintln(os.Stderr, "Indexing ...")
	outputs := []string{req.OutPrefix + ".bam", req.OutPrefix + ".splitters.bam", req.OutPrefix + ".discordants.bam"}
	index := make([]string, len(outputs))
	for i, bam := range outputs {
		if !utils.NonEmptyFile(bam) {
			return fmt.Errorf("alignment produced no output at %s", bam)
		}
		index[i] = fmt.Sprintf("%s index %s", tools.Samtools, bam)
	}
	results, err = runner.Run(index, 3, req.Verbose)
	if err != nil {
		return err
	}
	if failed := runner.Failures(results); len(failed) > 0 {
		return fmt.Errorf("indexing failed: %v (command: %s)", failed[0].Err, failed[0].Command)
	}

	fmt.Fprintf(os.Stderr, "Alignment done: %s.bam, %s.splitters.bam, %s.discordants.bam\n",
		req.OutPrefix, req.OutPrefix, req.OutPrefix)
	return nil
}
