package variants

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gmaffy/sprintseq/config"
	"github.com/gmaffy/sprintseq/windows"
)

// GermlineCommand builds the variant-caller invocation for one window,
// redirecting its VCF to a window-specific temp file.
func GermlineCommand(tools config.Tools, reference string, bams []string, w windows.Window, out string) string {
	return fmt.Sprintf("%s -f %s --region %s --min-repeat-entropy 1 --experimental-gls %s > %s",
		tools.Freebayes, reference, w.Region(), strings.Join(bams, " "), out)
}

// SomaticCommand builds the paired tumor/normal invocation for one window.
// The caller runs in pooled-discrete mode over both samples; the QUAL
// post-filter is applied in-process at merge time.
func SomaticCommand(tools config.Tools, reference, normalBam, tumorBam string, minAltFraction float64, minAltCount int, w windows.Window, out string) string {
	return fmt.Sprintf("%s -f %s --region %s --pooled-discrete --genotype-qualities --min-repeat-entropy 1 -F %g -C %d %s %s > %s",
		tools.Freebayes, reference, w.Region(), minAltFraction, minAltCount, normalBam, tumorBam, out)
}

// QualAtLeast returns a record filter keeping lines whose QUAL column is at
// least min. A QUAL that cannot be parsed is kept; dropping a record is a
// decision only an explicit caller-reported quality may trigger.
func QualAtLeast(min float64) func(string) bool {
	return func(line string) bool {
		toks := strings.SplitN(line, "\t", 7)
		if len(toks) < 6 {
			return true
		}
		q, err := strconv.ParseFloat(toks[5], 64)
		if err != nil {
			return true
		}
		return q >= min
	}
}

// MergeWindows concatenates per-window VCF outputs in window-enumeration
// order. The header block is taken from the first window that produced
// output; bodies from every producing window follow, optionally filtered by
// keep. A missing or empty per-window file is tolerated: it contributes zero
// records and is returned in skipped so the caller can surface a warning.
// Merging fails only when no window produced any output at all.
func MergeWindows(paths []string, keep func(string) bool, w io.Writer) (body int, skipped []string, err error) {
	headerDone := false

	for _, path := range paths {
		f, openErr := os.Open(path)
		if openErr != nil {
			skipped = append(skipped, path)
			continue
		}

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)
		lines := 0
		for sc.Scan() {
			line := sc.Text()
			lines++
			if strings.HasPrefix(line, "#") {
				if !headerDone {
					if _, err := fmt.Fprintln(w, line); err != nil {
						f.Close()
						return body, skipped, err
					}
				}
				continue
			}
			if keep != nil && !keep(line) {
				continue
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				f.Close()
				return body, skipped, err
			}
			body++
		}
		scanErr := sc.Err()
		f.Close()
		if scanErr != nil {
			return body, skipped, fmt.Errorf("reading %s: %w", path, scanErr)
		}
		if lines == 0 {
			skipped = append(skipped, path)
			continue
		}
		headerDone = true
	}

	if !headerDone {
		return body, skipped, fmt.Errorf("no window produced any output, nothing to merge")
	}
	return body, skipped, nil
}
