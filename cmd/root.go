/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gmaffy/sprintseq/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sprintseq",
	Short: "A fast pipeline driver for alignment, variant and SV calling",
	Long: `sprintseq chains external genome-analysis tools into four pipelines:
1.	align:         bwa mem + samblaster + samtools, three concurrent output streams
2.	call-variants: window-parallel freebayes, merged, sorted, compressed, indexed
3.	call-somatic:  paired tumor/normal freebayes with quality filtering
4.	call-sv:       lumpy with derived insert-size statistics
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("a subcommand is required")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		exitFunc(1)
	}
}

var cfgFile string
var verbose bool

var exitFunc = os.Exit

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "K", "", "path to tool-path config file ")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "echo every external command before running it")

	// a help request is informational, it never counts as a completed run
	rootCmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		fmt.Fprint(os.Stderr, c.UsageString())
		exitFunc(1)
	})
}

func resolveTools() (config.Tools, error) {
	return config.Resolve(cfgFile)
}

// defaultPrefix derives the output prefix from the first input file when -o
// is not given.
func defaultPrefix(explicit, firstInput string) string {
	if explicit != "" {
		return explicit
	}
	base := filepath.Base(firstInput)
	for _, suffix := range []string{".gz", ".fastq", ".fq", ".bam", ".cram"} {
		base = strings.TrimSuffix(base, suffix)
	}
	return base
}
