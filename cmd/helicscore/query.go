package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.helics.dev/corehub/internal/config"
	"go.helics.dev/corehub/internal/tlsconf"
)

func newQueryCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "query [status|endpoints|filters]",
		Short: "Query a running broker or core's status surface",
		Long: `Queries a running helicscore node's read-only HTTP/JSON surface
(/v1/status, /v1/endpoints, /v1/filters) and prints the result. The query
surface is always TLS-secured; --token must match the node's --token (or
be omitted on both sides to fall back to the default passphrase).

Flags, environment variables, and config-file keys
  --addr   HELICSCORE_QUERY_ADDR   addr     (e.g. 127.0.0.1:23405)
  --token  HELICSCORE_TOKEN        token
  --json   (no env/config equivalent)`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configFlag, _ := cmd.Flags().GetString("config")
			return config.Bind(cmd, v, configFlag)
		},
		RunE: func(_ *cobra.Command, args []string) error {
			what := "status"
			if len(args) == 1 {
				what = args[0]
			}
			return runQuery(v, what)
		},
	}

	f := cmd.Flags()
	f.String("addr", "127.0.0.1:23405", "query-surface address")
	f.String("token", "", "shared secret for the query surface's TLS (empty uses the default passphrase)")
	f.Bool("json", false, "print the raw JSON response")
	config.AddConfigFlag(cmd)

	return cmd
}

func runQuery(v *viper.Viper, what string) error {
	path, ok := map[string]string{
		"status":    "/v1/status",
		"endpoints": "/v1/endpoints",
		"filters":   "/v1/filters",
	}[what]
	if !ok {
		return fmt.Errorf("query: unknown target %q (want status|endpoints|filters)", what)
	}

	passphrase := v.GetString("token")
	if passphrase == "" {
		passphrase = tlsconf.DefaultPassphrase
	}
	tlsCfg, err := tlsconf.ClientTLSConfig(passphrase)
	if err != nil {
		return fmt.Errorf("query: TLS config: %w", err)
	}

	url := fmt.Sprintf("https://%s%s", v.GetString("addr"), path)
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: tlsCfg},
	}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("query %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("query %s: server returned %s: %s", url, resp.Status, body)
	}

	if v.GetBool("json") {
		fmt.Println(string(body))
		return nil
	}

	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	enc, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Fprintln(os.Stdout, string(enc))
	return nil
}
