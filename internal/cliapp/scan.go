package cliapp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var wxidDirPattern = regexp.MustCompile(`^wx[0-9a-f]{16}$`)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find a mini-program subdirectory under --root and unpack it",
	Run: func(cmd *cobra.Command, args []string) {
		viper.Unmarshal(c)
		os.Exit(runScan())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("root", "", "directory to scan for a wx... subdirectory")
	scanCmd.Flags().String("output", "out", "output directory")
	scanCmd.Flags().Int("thread", 30, "extraction worker count")
	scanCmd.Flags().Bool("disable-beautify", false, "skip JSON/JS/HTML pretty-printing")

	viper.BindPFlags(scanCmd.Flags())
}

func runScan() int {
	if c.Root == "" {
		fmt.Fprintln(os.Stderr, "scan: --root is required")
		return 1
	}

	entries, err := os.ReadDir(c.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return 1
	}

	var found string
	for _, e := range entries {
		if e.IsDir() && wxidDirPattern.MatchString(e.Name()) {
			found = e.Name()
			break
		}
	}
	if found == "" {
		fmt.Fprintln(os.Stderr, "scan: no wx... subdirectory found under --root")
		return 1
	}

	source := filepath.Join(c.Root, found)
	c.Root = source
	code := runUnpack()
	if code != 0 {
		return code
	}

	if err := writeScanDetail(found, source, c.Output); err != nil {
		fmt.Fprintf(os.Stderr, "scan: writing detail.json: %v\n", err)
		return 3
	}
	return 0
}

func writeScanDetail(wxid, source, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}
	detail := map[string]string{"wxid": wxid, "source": source}
	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "detail.json"), data, 0o644)
}
