package sv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/gmaffy/sprintseq/config"
	"github.com/gmaffy/sprintseq/utils"
)

// Fixed evidence-source tuning passed to the SV caller.
const (
	peBackDistance      = 30
	srBackDistance      = 10
	minMappingThreshold = 20
	discordantZ         = 4
	sourceWeight        = 1
)

// Sample is one input sample set: the full alignment plus its split-read and
// discordant-read subsets, with derived statistics. ID suffixes keep evidence
// sources apart when several samples are called together.
type Sample struct {
	ID          int
	Bam         string
	Splitters   string
	Discordants string
	Stats       InsertStats
	HistoPath   string
}

// PEArg renders the paired-end evidence parameter string for one sample.
func PEArg(s Sample) string {
	return fmt.Sprintf("id:%d,bam_file:%s,histo_file:%s,mean:%.3f,stdev:%.3f,read_length:%d,min_non_overlap:%d,discordant_z:%d,back_distance:%d,weight:%d,min_mapping_threshold:%d",
		s.ID, s.Discordants, s.HistoPath, s.Stats.Mean, s.Stats.Stdev, s.Stats.ReadLength,
		s.Stats.ReadLength, discordantZ, peBackDistance, sourceWeight, minMappingThreshold)
}

// SRArg renders the split-read evidence parameter string for one sample.
func SRArg(s Sample) string {
	return fmt.Sprintf("id:%d,bam_file:%s,back_distance:%d,weight:%d,min_mapping_threshold:%d",
		s.ID, s.Splitters, srBackDistance, sourceWeight, minMappingThreshold)
}

// Request carries the validated inputs for one call-sv invocation. Bams,
// Splitters and Discordants are parallel arrays, one entry per sample.
type Request struct {
	Bams        []string
	Splitters   []string
	Discordants []string
	OutPrefix   string
	TempDir     string
	ExcludeBed  string

	MinWeight     int
	TrimThreshold float64
	ReadLength    int // explicit override, 0 derives it from the data

	PEOverrides []string
	SROverrides []string

	Plot    bool
	Verbose bool

	Opts EstimateOpts
}

// Run assembles one split-read and one paired-end evidence source per sample
// and invokes the SV caller. An explicit -p or -s parameter string replaces
// the derived strings for that class only; insert statistics are estimated
// exactly when the paired-end class has no override, since split-read sources
// carry no statistics.
func Run(tools config.Tools, req Request) error {
	n := len(req.Bams)
	if n == 0 {
		return fmt.Errorf("call-sv needs at least one sample")
	}
	if len(req.Splitters) != n || len(req.Discordants) != n {
		return fmt.Errorf("sample lists must be parallel: %d full, %d splitters, %d discordants",
			n, len(req.Splitters), len(req.Discordants))
	}
	if err := tools.Verify(config.Lumpy); err != nil {
		return err
	}
	estimate := len(req.PEOverrides) == 0
	if estimate {
		if err := tools.Verify(config.Samtools); err != nil {
			return err
		}
	}

	tmp, cleanup, err := utils.MakeTempDir(req.TempDir, "sprintseq_sv_*")
	if err != nil {
		return err
	}
	defer cleanup()

	peArgs := req.PEOverrides
	srArgs := req.SROverrides
	if estimate {
		samples := make([]Sample, n)
		var g errgroup.Group
		g.SetLimit(3)
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				fmt.Fprintf(os.Stderr, "Estimating insert statistics for %s ...\n", req.Bams[i])
				stats, hist, err := Estimate(tools.Samtools, req.Bams[i], req.Opts)
				if err != nil {
					return err
				}
				if req.ReadLength > 0 {
					stats.ReadLength = req.ReadLength
				}
				histo := filepath.Join(tmp, fmt.Sprintf("sample%d.histo", i))
				if err := hist.Write(histo); err != nil {
					return err
				}
				samples[i] = Sample{
					ID:          i,
					Bam:         req.Bams[i],
					Splitters:   req.Splitters[i],
					Discordants: req.Discordants[i],
					Stats:       stats,
					HistoPath:   histo,
				}
				fmt.Fprintf(os.Stderr, "Sample %d: mean %.2f, stdev %.2f, read length %d\n",
					i, stats.Mean, stats.Stdev, stats.ReadLength)
				if req.Plot {
					html := fmt.Sprintf("%s.%d.insert_size.html", req.OutPrefix, i)
					if err := WriteChart(hist, stats, filepath.Base(req.Bams[i]), html); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, s := range samples {
			peArgs = append(peArgs, PEArg(s))
		}
		if len(srArgs) == 0 {
			for _, s := range samples {
				srArgs = append(srArgs, SRArg(s))
			}
		}
	} else if len(srArgs) == 0 {
		for i := range req.Splitters {
			srArgs = append(srArgs, SRArg(Sample{ID: i, Splitters: req.Splitters[i]}))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "set -eo pipefail; %s -mw %d -tt %g -t %s/lumpy", tools.Lumpy, req.MinWeight, req.TrimThreshold, tmp)
	if req.ExcludeBed != "" {
		fmt.Fprintf(&sb, " -x %s", req.ExcludeBed)
	}
	for _, a := range srArgs {
		fmt.Fprintf(&sb, " -sr %s", a)
	}
	for _, a := range peArgs {
		fmt.Fprintf(&sb, " -pe %s", a)
	}
	bedpe := req.OutPrefix + ".bedpe"
	fmt.Fprintf(&sb, " > %s", bedpe)

	fmt.Fprintln(os.Stderr, "Running SV caller ...")
	if err := utils.RunBashCmd(sb.String(), req.Verbose); err != nil {
		return fmt.Errorf("SV calling failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", bedpe)
	return nil
}
