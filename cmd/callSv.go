/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmaffy/sprintseq/sv"
	"github.com/gmaffy/sprintseq/utils"
)

var callSvCmd = &cobra.Command{
	Use:   "call-sv [options] <full.bam[,...]> <splitters.bam[,...]> <discordants.bam[,...]>",
	Short: "Call structural variants with derived insert-size statistics",
	Long: `Takes three parallel comma-separated lists (full alignments, split-read
subsets, discordant-read subsets, one entry each per sample), estimates
insert-size mean/stdev and read length per sample from a bounded mid-stream
sample, and feeds one split-read and one paired-end evidence source per
sample into the SV caller. Output is <prefix>.bedpe.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := resolveTools()
		if err != nil {
			return err
		}

		bams := strings.Split(args[0], ",")
		splitters := strings.Split(args[1], ",")
		discordants := strings.Split(args[2], ",")
		var all []string
		all = append(all, bams...)
		all = append(all, splitters...)
		all = append(all, discordants...)
		if err := utils.FilesExist(all...); err != nil {
			return err
		}
		if svExclude != "" {
			if err := utils.FilesExist(svExclude); err != nil {
				return err
			}
		}

		req := sv.Request{
			Bams:          bams,
			Splitters:     splitters,
			Discordants:   discordants,
			OutPrefix:     defaultPrefix(svPrefix, bams[0]),
			TempDir:       svTempDir,
			ExcludeBed:    svExclude,
			MinWeight:     svMinWeight,
			TrimThreshold: svTrim,
			ReadLength:    svReadLength,
			PEOverrides:   svPEOverrides,
			SROverrides:   svSROverrides,
			Plot:          svPlot,
			Verbose:       verbose,
		}
		return sv.Run(tools, req)
	},
}

var (
	svPrefix      string
	svTempDir     string
	svExclude     string
	svMinWeight   int
	svTrim        float64
	svReadLength  int
	svPEOverrides []string
	svSROverrides []string
	svPlot        bool
)

func init() {
	rootCmd.AddCommand(callSvCmd)

	callSvCmd.Flags().StringVarP(&svPrefix, "output", "o", "", "output prefix (default: first BAM basename)")
	callSvCmd.Flags().StringVarP(&svTempDir, "tempdir", "T", "", "temp directory base")
	callSvCmd.Flags().StringVarP(&svExclude, "exclude", "x", "", "BED of regions to exclude")
	callSvCmd.Flags().IntVarP(&svMinWeight, "min-weight", "m", 4, "minimum evidence weight for a call")
	callSvCmd.Flags().Float64VarP(&svTrim, "trim-threshold", "r", 0, "breakpoint probability trim threshold")
	callSvCmd.Flags().IntVarP(&svReadLength, "read-length", "l", 0, "read length override (default: derived from the data)")
	callSvCmd.Flags().StringArrayVarP(&svPEOverrides, "pe", "p", nil, "explicit paired-end evidence string (repeatable, bypasses estimation)")
	callSvCmd.Flags().StringArrayVarP(&svSROverrides, "sr", "s", nil, "explicit split-read evidence string (repeatable, bypasses estimation)")
	callSvCmd.Flags().BoolVarP(&svPlot, "plot", "P", false, "write an insert-size distribution HTML report per sample")
}
