package cliapp

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kenneth/wxapkg-restorer/internal/beautify"
	"github.com/kenneth/wxapkg-restorer/internal/container"
	"github.com/kenneth/wxapkg-restorer/internal/crypto"
	"github.com/kenneth/wxapkg-restorer/internal/orchestrator"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack",
	Short: "Decrypt and extract one archive or a tree of archives",
	Run: func(cmd *cobra.Command, args []string) {
		viper.Unmarshal(c)
		os.Exit(runUnpack())
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)

	unpackCmd.Flags().String("root", "", "archive file or directory of mini-program subdirectories")
	unpackCmd.Flags().String("output", "out", "output directory")
	unpackCmd.Flags().Int("thread", container.DefaultWorkers, "extraction worker count")
	unpackCmd.Flags().Bool("disable-beautify", false, "skip JSON/JS/HTML pretty-printing")
	unpackCmd.Flags().String("identifier", "", "wx... identifier, overriding path-based inference")

	viper.BindPFlags(unpackCmd.Flags())
}

func runUnpack() int {
	if c.Root == "" {
		fmt.Fprintln(os.Stderr, "unpack: --root is required")
		return 1
	}

	transforms := transformRegistry(c.DisableBeautify)
	total := 0
	opts := orchestrator.Options{
		Identifier:       c.Identifier,
		Workers:          c.Threads,
		Transforms:       transforms,
		EnableTransforms: !c.DisableBeautify,
		Logger:           logger,
		Metrics:          appMetrics,
		Progress: func(completed, t int) {
			total = t
			fmt.Fprintf(os.Stderr, "\rextracting %d/%d", completed, t)
		},
	}

	result, err := orchestrator.Run(c.Root, c.Output, opts)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return exitCodeFor(err)
	}

	printUnpackSummary(result, total)
	return 0
}

// transformRegistry converts beautify's Transform type into container's
// identically-shaped but distinct Transform type, since Go does not
// implicitly convert between two named function types sharing an underlying
// signature when used as map values.
func transformRegistry(disabled bool) map[string]container.Transform {
	if disabled {
		return nil
	}
	out := make(map[string]container.Transform)
	for ext, fn := range beautify.DefaultRegistry() {
		fn := fn
		out[ext] = func(data []byte) ([]byte, error) { return fn(data) }
	}
	return out
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, crypto.ErrBadIdentifier), errors.Is(err, orchestrator.ErrBadIdentifier):
		fmt.Fprintf(os.Stderr, "unpack: %v\n", err)
		return 1
	case errors.Is(err, crypto.ErrBadArchive), errors.Is(err, container.ErrBadArchive):
		fmt.Fprintf(os.Stderr, "unpack: %v\n", err)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "unpack: %v\n", err)
		return 3
	}
}

func printUnpackSummary(result *orchestrator.Result, total int) {
	fmt.Fprintf(os.Stderr, "archives processed: %d\n", len(result.Archives))
	fmt.Fprintf(os.Stderr, "files written: %d\n", result.FilesWritten)
	fmt.Fprintf(os.Stderr, "files failed: %d\n", result.FilesFailed)

	counts := map[string]int64{}
	for _, ar := range result.Archives {
		if ar.Extract == nil {
			continue
		}
		for ext, n := range ar.Extract.ExtensionCounts {
			counts[ext] += n
		}
	}
	exts := make([]string, 0, len(counts))
	for ext := range counts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Fprintf(os.Stderr, "  %s: %d\n", ext, counts[ext])
	}
}
