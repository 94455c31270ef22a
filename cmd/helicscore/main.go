// helicscore: a HELICS-style co-simulation message core and broker.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go.helics.dev/corehub/internal/buildinfo"
	"go.helics.dev/corehub/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:   "helicscore",
		Short: "HELICS-style message core and broker",
		Long: `helicscore runs the message delivery and filtering layer of a
HELICS-style co-simulation: cores route endpoint messages through
source/destination/cloning filters on behalf of the federates attached to
them, and brokers route those messages between cores.

Run "helicscore broker" for a root broker and "helicscore core" for a core
that reports to one.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newBrokerCmd(),
		newCoreCmd(),
		newQueryCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("helicscore %s (min supported protocol %s)\n", buildinfo.Version, buildinfo.MinSupportedProtocol)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed,
// installing both a console sink (--log-format/--log-level, or debug
// verbosity when running interactively via --no-background) and, when
// --logfile is set, a second file sink at its own level.
func resolveLogging(noBackground bool, formatStr, levelStr, logfile, fileLevelStr, consoleLevelStr string) (*os.File, error) {
	format := logging.ParseFormat(formatStr)

	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if noBackground {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}

	consoleLevel := level
	if consoleLevelStr != "" {
		consoleLevel = logging.ParseLevel(consoleLevelStr)
	}
	logging.Setup(format, consoleLevel)

	if logfile == "" {
		return nil, nil
	}

	f, err := logging.OpenFile(logfile)
	if err != nil {
		return nil, fmt.Errorf("opening --logfile %s: %w", logfile, err)
	}

	fileLevel := level
	if fileLevelStr != "" {
		fileLevel = logging.ParseLevel(fileLevelStr)
	}
	fileLogger := logging.New(logging.FormatJSON, f, fileLevel)
	slog.SetDefault(slog.New(newMultiHandler(slog.Default().Handler(), fileLogger.Handler())))
	return f, nil
}
