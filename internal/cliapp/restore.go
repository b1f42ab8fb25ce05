package cliapp

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kenneth/wxapkg-restorer/internal/wxconfig"
	"github.com/kenneth/wxapkg-restorer/internal/wxml"
	"github.com/kenneth/wxapkg-restorer/internal/wxss"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reconstruct source artifacts from an unpacked archive tree",
	Run: func(cmd *cobra.Command, args []string) {
		viper.Unmarshal(c)
		os.Exit(runRestore())
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().String("input", "", "unpacked archive tree to restore from")
	restoreCmd.Flags().String("output", "restored", "output directory")
	restoreCmd.Flags().String("type", "all", "restore kind: wxss, wxml, config, or all")

	viper.BindPFlags(restoreCmd.Flags())
}

func runRestore() int {
	if c.Input == "" {
		fmt.Fprintln(os.Stderr, "restore: --input is required")
		return 1
	}

	kinds := restoreKinds(c.RestoreType)
	if len(kinds) == 0 {
		fmt.Fprintf(os.Stderr, "restore: unknown --type %q\n", c.RestoreType)
		return 1
	}

	written := map[string][]string{}
	for _, kind := range kinds {
		paths, err := runOneRestorer(kind)
		if err != nil {
			appMetrics.RecordRestoreError(kind)
			fmt.Fprintf(os.Stderr, "restore: %s: %v\n", kind, err)
			return 3
		}
		appMetrics.RecordRestoredFiles(kind, len(paths))
		written[kind] = paths
	}

	printRestoreSummary(written)
	return 0
}

func restoreKinds(t string) []string {
	switch t {
	case "wxss", "wxml", "config":
		return []string{t}
	case "all", "":
		return []string{"wxss", "wxml", "config"}
	default:
		return nil
	}
}

func runOneRestorer(kind string) ([]string, error) {
	switch kind {
	case "wxss":
		r := wxss.New(c.Input)
		restored, err := r.Restore()
		if err != nil {
			return nil, err
		}
		if _, err := r.Save(c.Output); err != nil {
			return nil, err
		}
		return sortedKeys(restored), nil
	case "wxml":
		r := wxml.New(c.Input)
		restored, err := r.Restore()
		if err != nil {
			return nil, err
		}
		if _, err := r.Save(c.Output); err != nil {
			return nil, err
		}
		return sortedKeys(restored), nil
	case "config":
		r := wxconfig.New(c.Input)
		configs, err := r.Restore()
		if err != nil {
			return nil, err
		}
		if _, err := wxconfig.Save(configs, c.Output); err != nil {
			return nil, err
		}
		return sortedKeys(configs), nil
	default:
		return nil, fmt.Errorf("unknown restore kind %q", kind)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printRestoreSummary(written map[string][]string) {
	for _, kind := range []string{"wxss", "wxml", "config"} {
		paths, ok := written[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(os.Stderr, "%s: %d restored\n", kind, len(paths))
		limit := len(paths)
		if limit > 10 {
			limit = 10
		}
		for _, p := range paths[:limit] {
			fmt.Fprintf(os.Stderr, "  %s\n", p)
		}
		if len(paths) > 10 {
			fmt.Fprintf(os.Stderr, "  ... and %d more\n", len(paths)-10)
		}
	}
}
