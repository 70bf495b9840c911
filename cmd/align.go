/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gmaffy/sprintseq/align"
	"github.com/gmaffy/sprintseq/utils"
)

var alignCmd = &cobra.Command{
	Use:   "align -R <readgroup> [options] <reference.fa> <reads1.fq> [reads2.fq]",
	Short: "Align reads into full, split-read and discordant-read BAMs",
	Long: `Aligns one or two FASTQ files (or one interleaved file with -p) against a
reference and writes three sorted, indexed BAMs: <prefix>.bam,
<prefix>.splitters.bam and <prefix>.discordants.bam. The unsorted alignment
stream is fanned out through named pipes and never written to disk.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := resolveTools()
		if err != nil {
			return err
		}
		if err := utils.FilesExist(args...); err != nil {
			return err
		}

		req := align.Request{
			Reference:         args[0],
			Reads:             args[1:],
			ReadGroup:         alignReadGroup,
			OutPrefix:         defaultPrefix(alignPrefix, args[1]),
			TempDir:           alignTempDir,
			Threads:           alignThreads,
			Interleaved:       alignInterleaved,
			IncludeDuplicates: alignIncludeDups,
			MaxSplitCount:     alignMaxSplit,
			MinNonOverlap:     alignMinOverlap,
			Verbose:           verbose,
		}
		return align.Run(tools, req)
	},
}

var (
	alignReadGroup   string
	alignPrefix      string
	alignTempDir     string
	alignThreads     int
	alignInterleaved bool
	alignIncludeDups bool
	alignMaxSplit    int
	alignMinOverlap  int
)

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().StringVarP(&alignReadGroup, "readgroup", "R", "", `read group header line, e.g. '@RG\tID:x\tSM:y' (required)`)
	alignCmd.Flags().StringVarP(&alignPrefix, "output", "o", "", "output prefix (default: first read file basename)")
	alignCmd.Flags().StringVarP(&alignTempDir, "tempdir", "T", "", "temp directory base")
	alignCmd.Flags().IntVarP(&alignThreads, "threads", "t", runtime.NumCPU(), "aligner threads")
	alignCmd.Flags().BoolVarP(&alignInterleaved, "interleaved", "p", false, "first read file is interleaved paired-end")
	alignCmd.Flags().BoolVarP(&alignIncludeDups, "include-duplicates", "i", false, "keep duplicate-marked reads in the split/discordant streams")
	alignCmd.Flags().IntVarP(&alignMaxSplit, "max-split-count", "c", 2, "maximum split alignments for a split-read candidate")
	alignCmd.Flags().IntVarP(&alignMinOverlap, "min-non-overlap", "m", 20, "minimum non-overlapping bases between split alignments")
}
