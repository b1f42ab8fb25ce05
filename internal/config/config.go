// Package config defines the Conf struct used by the cliapp package to bind
// cobra flags and viper configuration values into a single typed structure.
package config

// Conf holds the configuration values populated by viper from cobra flags,
// environment variables, or a config file.
//
// mapstructure tags are required wherever the lowercased Go field name does
// not match the cobra flag name that viper binds. Without them,
// viper.Unmarshal silently leaves those fields at their zero value.
type Conf struct {
	// Root is the --root argument to scan/unpack: either a single
	// .wxapkg file or a directory whose children may contain archives.
	Root string `mapstructure:"root"`
	// Output is the --output directory for unpack/restore.
	Output string `mapstructure:"output"`
	// Threads bounds extraction concurrency (--thread), default 30.
	Threads int `mapstructure:"thread"`
	// DisableBeautify turns off the JSON/JS/HTML pretty-print transforms.
	DisableBeautify bool `mapstructure:"disable-beautify"`
	// Identifier optionally supplies the wx... identifier directly,
	// skipping path-based inference.
	Identifier string `mapstructure:"identifier"`

	// Input is the --input unpacked-tree directory for restore.
	Input string `mapstructure:"input"`
	// RestoreType selects which restorer(s) to run: wxss, wxml, config,
	// or all (--type).
	RestoreType string `mapstructure:"type"`
}
