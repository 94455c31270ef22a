package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.helics.dev/corehub/internal/config"
	"go.helics.dev/corehub/internal/ident"
)

func newCoreCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "core",
		Short: "Run a core reporting to a broker",
		Long: `Starts a core: the filter federate executor that federates attached to
it register endpoints and filters against. A core reports to a broker,
which routes messages on to other cores in the federation.

Flags, environment variables, and config-file keys
  Flag            Env var                      Config key
  ────────────────────────────────────────────────────────
  --id            HELICSCORE_ID                id
  --broker        HELICSCORE_BROKER            broker
  --protocol      HELICSCORE_PROTOCOL          protocol
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
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configFlag, _ := cmd.Flags().GetString("config")
			return config.Bind(cmd, v, configFlag)
		},
		RunE: func(_ *cobra.Command, _ []string) error { return runCore(v) },
	}

	f := cmd.Flags()
	f.Int("id", 2, "this core's federate id")
	f.String("broker", "127.0.0.1:23404", "broker address to connect to")
	f.String("protocol", "0.1.0", "protocol version checked against the minimum supported protocol before dialing the broker (not sent to the broker)")
	f.String("addr", "0.0.0.0:0", "TCP listen address for federates attached to this core")
	f.String("query-addr", "0.0.0.0:23406", "TCP listen address for the gRPC/HTTP query surface and /metrics")
	f.String("token", "", "shared secret for peer-link encryption (empty disables it)")
	f.String("separator", "/", "hierarchical endpoint name separator")
	f.Duration("tick-interval", 0, "broker-base event loop tick interval (0 disables ticking)")
	config.AddConfigFlag(cmd)
	config.AddLoggingFlags(cmd)

	return cmd
}

func runCore(v *viper.Viper) error {
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
		id:           ident.NewFederateID(int32(v.GetInt("id"))),
		separator:    v.GetString("separator"),
		tickInterval: v.GetDuration("tick-interval"),
		listenAddr:   v.GetString("addr"),
		queryAddr:    v.GetString("query-addr"),
		token:        v.GetString("token"),
		brokerAddr:   v.GetString("broker"),
		protocol:     v.GetString("protocol"),
		dumpLog:      v.GetBool("dumplog"),
	})
}
