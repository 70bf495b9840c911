/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gmaffy/sprintseq/utils"
	"github.com/gmaffy/sprintseq/variants"
)

var callSomaticCmd = &cobra.Command{
	Use:   "call-somatic [options] <reference.fa> <normal.bam> <tumor.bam>",
	Short: "Call somatic variants from a tumor/normal pair",
	Long: `Runs the variant caller in pooled-discrete mode over the normal/tumor pair,
window-parallel like call-variants. Records below the -F alternate-allele
fraction or the -C alternate observation count are never emitted by the
caller; records below the -q quality floor are dropped during the merge even
when the caller emitted them.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tools, err := resolveTools()
		if err != nil {
			return err
		}
		if err := utils.FilesExist(args...); err != nil {
			return err
		}
		if csWindows != "" {
			if err := utils.FilesExist(csWindows); err != nil {
				return err
			}
		}

		req := variants.SomaticRequest{
			Reference:      args[0],
			NormalBam:      args[1],
			TumorBam:       args[2],
			OutPrefix:      defaultPrefix(csPrefix, args[2]),
			WindowsFile:    csWindows,
			Threads:        csThreads,
			MinAltFraction: csMinAltFraction,
			MinAltCount:    csMinAltCount,
			MinQual:        csMinQual,
			Annotate:       csAnnotate,
			Verbose:        verbose,
		}
		return variants.CallSomatic(tools, req)
	},
}

var (
	csPrefix         string
	csWindows        string
	csThreads        int
	csMinAltFraction float64
	csMinAltCount    int
	csMinQual        float64
	csAnnotate       bool
)

func init() {
	rootCmd.AddCommand(callSomaticCmd)

	callSomaticCmd.Flags().StringVarP(&csPrefix, "output", "o", "", "output prefix (default: tumor BAM basename)")
	callSomaticCmd.Flags().StringVarP(&csWindows, "windows", "w", "", "three-column tab-separated interval file")
	callSomaticCmd.Flags().IntVarP(&csThreads, "threads", "t", runtime.NumCPU(), "concurrent caller processes")
	callSomaticCmd.Flags().Float64VarP(&csMinAltFraction, "min-alt-fraction", "F", 0.05, "minimum alternate-allele fraction")
	callSomaticCmd.Flags().IntVarP(&csMinAltCount, "min-alt-count", "C", 2, "minimum alternate observation count")
	callSomaticCmd.Flags().Float64VarP(&csMinQual, "min-quality", "q", 1, "minimum caller-reported quality")
	callSomaticCmd.Flags().BoolVarP(&csAnnotate, "annotate", "A", false, "annotate the merged VCF with snpEff")
}
