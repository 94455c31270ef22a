// Package config binds cobra command flags into a viper instance with the
// precedence chain the teacher's CLI uses: defaults -> config file -> env
// vars -> flags. The env prefix and config file name are HELICSCORE_ and
// helicscore.toml, searched in /etc/helicscore then $HOME/.config/helicscore.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "HELICSCORE"
	configName = "helicscore"
)

// Bind wires cmd's flags into v, reading a config file first if present.
// configFlag, when non-empty, overrides auto-discovery with an explicit
// path.
func Bind(cmd *cobra.Command, v *viper.Viper, configFlag string) error {
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		for _, p := range SearchPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// SearchPaths returns the ordered list of directories to search for
// helicscore.toml. viper reads the file from the first directory that has
// one, so an earlier directory wins over a later one.
func SearchPaths() []string {
	var paths []string

	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, fmt.Sprintf(`%s\helicscore`, pd))
		}
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			paths = append(paths, fmt.Sprintf(`%s\helicscore`, appdata))
		}
		return paths
	}

	paths = append(paths, "/etc/helicscore")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, fmt.Sprintf("%s/.config/helicscore", home))
	}
	return paths
}

// AddConfigFlag adds the --config flag to cmd.
func AddConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// AddLoggingFlags adds the standard logging flags to cmd.
func AddLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info)")
	cmd.Flags().String("logfile", "", "also write log records to this file")
	cmd.Flags().String("fileloglevel", "", "log level for --logfile, defaults to --log-level")
	cmd.Flags().String("consoleloglevel", "", "log level for stderr, defaults to --log-level")
	cmd.Flags().Bool("dumplog", false, "dump every ActionMessage processed at debug level")
}
