package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.helics.dev/corehub/internal/config"
	"go.helics.dev/corehub/internal/ident"
)

func newBrokerCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "broker",
		Short: "Run a root broker",
		Long: `Starts a root broker: the top of a federation's broker tree, routing
ActionMessage frames between the cores and sub-brokers that connect to it.

Flags, environment variables, and config-file keys
  Flag            Env var                      Config key
  ────────────────────────────────────────────────────────
  --addr          HELICSCORE_ADDR              addr
  --query-addr    HELICSCORE_QUERY_ADDR        query-addr
  --token         HELICSCORE_TOKEN             token
  --separator     HELICSCORE_SEPARATOR         separator
  --tick-interval HELICSCORE_TICK_INTERVAL     tick-interval

Config file search order (first found wins)
  /etc/helicscore/helicscore.toml
  $HOME/.config/helicscore/helicscore.toml
  (--config <path> replaces this search and reads only that file)

Precedence: defaults → config file → HELICSCORE_* env vars → CLI flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configFlag, _ := cmd.Flags().GetString("config")
			return config.Bind(cmd, v, configFlag)
		},
		RunE:    func(_ *cobra.Command, _ []string) error { return runBroker(v) },
	}

	f := cmd.Flags()
	f.String("addr", "0.0.0.0:23404", "TCP listen address for core/sub-broker peer links")
	f.String("query-addr", "0.0.0.0:23405", "TCP listen address for the gRPC/HTTP query surface and /metrics")
	f.String("token", "", "shared secret for peer-link encryption (empty disables it)")
	f.String("separator", "/", "hierarchical endpoint name separator")
	f.Duration("tick-interval", 0, "broker-base event loop tick interval (0 disables ticking)")
	config.AddConfigFlag(cmd)
	config.AddLoggingFlags(cmd)

	return cmd
}

func runBroker(v *viper.Viper) error {
	logfile, err := resolveLogging(
		v.GetBool("no-background"), v.GetString("log-format"), v.GetString("log-level"),
		v.GetString("logfile"), v.GetString("fileloglevel"), v.GetString("consoleloglevel"),
	)
	if err != nil {
		return err
	}
	if logfile != nil {
		defer logfile.Close()
	}

	return runNode(nodeConfig{
		id:           ident.FederateIDFromBroker(ident.RootBrokerID),
		separator:    v.GetString("separator"),
		tickInterval: v.GetDuration("tick-interval"),
		listenAddr:   v.GetString("addr"),
		queryAddr:    v.GetString("query-addr"),
		token:        v.GetString("token"),
		dumpLog:      v.GetBool("dumplog"),
	})
}
