// Package cliapp wires the cobra command tree for the wxapkg unpacker: scan,
// unpack, and restore, all sharing one viper-bound config.Conf.
package cliapp

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kenneth/wxapkg-restorer/internal/config"
	"github.com/kenneth/wxapkg-restorer/internal/debug"
	"github.com/kenneth/wxapkg-restorer/internal/metrics"
)

var (
	c          = &config.Conf{}
	verbose    bool
	cfgFile    string
	logger     = logrus.New()
	appMetrics = metrics.NewMetrics()
)

var rootCmd = &cobra.Command{
	Use:   "wxapkg",
	Short: "Decrypt, extract, and restore WeChat mini-program .wxapkg archives",
}

// Execute runs the command tree. It is called once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file, overridden by flags and WXAPKG_* env vars")
}

func initConfig() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("wxapkg")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "wxapkg: reading --config %s: %v\n", cfgFile, err)
		}
	}

	if verbose {
		logger.SetLevel(logrus.DebugLevel)
		debug.SetEnabled(true)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		debug.InitFromEnv()
	}
}
