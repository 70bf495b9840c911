package variants

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gmaffy/sprintseq/annotation"
	"github.com/gmaffy/sprintseq/config"
	"github.com/gmaffy/sprintseq/runner"
	"github.com/gmaffy/sprintseq/utils"
	"github.com/gmaffy/sprintseq/windows"
)

// Request carries the validated inputs for one call-variants invocation.
type Request struct {
	Reference   string
	Bams        []string
	OutPrefix   string
	WindowsFile string
	Threads     int
	Annotate    bool
	Verbose     bool
}

// SomaticRequest carries the validated inputs for one call-somatic
// invocation.
type SomaticRequest struct {
	Reference   string
	NormalBam   string
	TumorBam    string
	OutPrefix   string
	WindowsFile string
	Threads     int

	MinAltFraction float64
	MinAltCount    int
	MinQual        float64

	Annotate bool
	Verbose  bool
}

// Call runs the variant caller over every window in parallel and merges the
// per-window outputs into one sorted, optionally annotated, compressed and
// indexed VCF.
func Call(tools config.Tools, req Request) error {
	build := func(w windows.Window, out string) string {
		return GermlineCommand(tools, req.Reference, req.Bams, w, out)
	}
	return callWindows(tools, callConfig{
		pipeline:    "variants",
		reference:   req.Reference,
		firstBam:    req.Bams[0],
		outPrefix:   req.OutPrefix,
		windowsFile: req.WindowsFile,
		threads:     req.Threads,
		annotate:    req.Annotate,
		verbose:     req.Verbose,
		command:     build,
		keep:        nil,
	})
}

// CallSomatic runs the caller in paired tumor/normal pooled-discrete mode.
// Records below the minimum quality are dropped in-process during the merge,
// even when the caller itself emitted them.
func CallSomatic(tools config.Tools, req SomaticRequest) error {
	build := func(w windows.Window, out string) string {
		return SomaticCommand(tools, req.Reference, req.NormalBam, req.TumorBam, req.MinAltFraction, req.MinAltCount, w, out)
	}
	return callWindows(tools, callConfig{
		pipeline:    "somatic",
		reference:   req.Reference,
		firstBam:    req.NormalBam,
		outPrefix:   req.OutPrefix,
		windowsFile: req.WindowsFile,
		threads:     req.Threads,
		annotate:    req.Annotate,
		verbose:     req.Verbose,
		command:     build,
		keep:        QualAtLeast(req.MinQual),
	})
}

type callConfig struct {
	pipeline    string
	reference   string
	firstBam    string
	outPrefix   string
	windowsFile string
	threads     int
	annotate    bool
	verbose     bool
	command     func(windows.Window, string) string
	keep        func(string) bool
}

// resolveWindows picks the working set: an explicit interval file wins,
// otherwise one whole-sequence window per entry of the first input's
// sequence dictionary (falling back to the reference .fai).
func resolveWindows(tools config.Tools, cfg callConfig) ([]windows.Window, error) {
	if cfg.windowsFile != "" {
		return windows.Load(cfg.windowsFile)
	}
	ws, err := windows.FromBamHeader(tools.Samtools, cfg.firstBam)
	if err == nil {
		return ws, nil
	}
	if utils.NonEmptyFile(cfg.reference + ".fai") {
		return windows.FromFai(cfg.reference + ".fai")
	}
	return nil, err
}

// ensureFai makes sure the reference index the interval sorter needs exists.
func ensureFai(tools config.Tools, reference string, verbose bool) error {
	fai := reference + ".fai"
	if utils.NonEmptyFile(fai) {
		return nil
	}
	if err := utils.RunBashCmd(fmt.Sprintf("%s faidx %s", tools.Samtools, reference), verbose); err != nil {
		return fmt.Errorf("indexing reference %s: %w", reference, err)
	}
	return nil
}

func callWindows(tools config.Tools, cfg callConfig) error {
	required := []string{config.Freebayes, config.Samtools, config.Gsort, config.Bgzip, config.Tabix}
	if cfg.annotate {
		required = append(required, config.SnpEff)
	}
	if err := tools.Verify(required...); err != nil {
		return err
	}

	var annotate string
	if cfg.annotate {
		var err error
		annotate, err = annotation.PipeCommand(tools)
		if err != nil {
			return err
		}
	}

	ws, err := resolveWindows(tools, cfg)
	if err != nil {
		return err
	}
	if cfg.threads < 1 {
		cfg.threads = 1
	}
	fmt.Fprintf(os.Stderr, "Calling variants over %d windows with %d threads ...\n", len(ws), cfg.threads)

	// Per-window outputs live in a deterministic work dir so a re-run can
	// pick up where a crashed one stopped. It is removed on success. The
	// pipeline name keeps germline and somatic state apart when both run
	// with the same output prefix.
	workDir := fmt.Sprintf("%s.%s.work", cfg.outPrefix, cfg.pipeline)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("creating work dir %s: %w", workDir, err)
	}

	logPath := fmt.Sprintf("%s.%s.run.log", cfg.outPrefix, cfg.pipeline)
	previous, err := utils.ParseLogFile(logPath)
	if err != nil {
		return err
	}
	runLog, err := utils.NewRunLog(logPath)
	if err != nil {
		return err
	}
	defer runLog.Close()

	outs := make([]string, len(ws))
	var cmds []string
	var submitted []int
	for i, w := range ws {
		outs[i] = filepath.Join(workDir, fmt.Sprintf("%d.vcf", i))
		if utils.StageHasCompleted(previous, "freebayes", w.Region()) && utils.NonEmptyFile(outs[i]) {
			fmt.Fprintf(os.Stderr, "Skipping window %s (already completed)\n", w.Region())
			continue
		}
		cmd := cfg.command(w, outs[i])
		runLog.Started("VARIANT CALLING", "freebayes", w.Region(), cmd)
		cmds = append(cmds, cmd)
		submitted = append(submitted, i)
	}

	if len(cmds) > 0 {
		results, err := runner.Run(cmds, cfg.threads, cfg.verbose)
		if err != nil {
			return err
		}
		for k, r := range results {
			w := ws[submitted[k]]
			if r.Failed() {
				// Deliberate best-effort policy: one failed window
				// contributes nothing but does not sink the batch.
				runLog.Failed("VARIANT CALLING", "freebayes", w.Region(), r.Err)
				fmt.Fprintf(os.Stderr, "Warning: window %s failed (%v), its records are excluded\n", w.Region(), r.Err)
				continue
			}
			runLog.Completed("VARIANT CALLING", "freebayes", w.Region())
		}
	}

	fmt.Fprintln(os.Stderr, "Merging windows ...")
	merged := filepath.Join(workDir, "merged.vcf")
	mf, err := os.Create(merged)
	if err != nil {
		return err
	}
	body, skipped, mergeErr := MergeWindows(outs, cfg.keep, mf)
	closeErr := mf.Close()
	if mergeErr != nil {
		return mergeErr
	}
	if closeErr != nil {
		return closeErr
	}
	for _, path := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: no usable output at %s, window contributed zero records\n", path)
	}
	if body == 0 {
		fmt.Fprintln(os.Stderr, "Warning: merged output has a header but no records")
	}

	if err := ensureFai(tools, cfg.reference, cfg.verbose); err != nil {
		return err
	}

	finalVcf := cfg.outPrefix + ".vcf.gz"
	sortCmd := fmt.Sprintf("set -eo pipefail; %s %s %s.fai", tools.Gsort, merged, cfg.reference)
	if annotate != "" {
		sortCmd += " | " + annotate
	}
	sortCmd += fmt.Sprintf(" | %s -c > %s", tools.Bgzip, finalVcf)
	if err := utils.RunBashCmd(sortCmd, cfg.verbose); err != nil {
		return fmt.Errorf("sorting and compressing %s: %w", finalVcf, err)
	}
	if err := utils.RunBashCmd(fmt.Sprintf("%s -f -p vcf %s", tools.Tabix, finalVcf), cfg.verbose); err != nil {
		return fmt.Errorf("indexing %s: %w", finalVcf, err)
	}

	if err := os.RemoveAll(workDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not remove work dir %s: %v\n", workDir, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%d records)\n", finalVcf, body)
	return nil
}
