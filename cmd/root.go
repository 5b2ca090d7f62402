// Package cmd holds the mgnrega command line: the proxy server, the terminal
// dashboard and a headless PDF export.
package cmd

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mgnrega/dashboard/config"
	"github.com/spf13/cobra"
)

// apiURL is the proxy base URL used by the client commands.
var apiURL string

// rootCmd runs the proxy when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "mgnrega",
	Short: "MGNREGA district performance dashboard",
	Long: `Proxy for the data.gov.in MGNREGA resource plus its dashboard client.

Without a subcommand the proxy server is started, same as 'mgnrega serve'.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	for _, c := range []*cobra.Command{dashboardCmd, exportCmd} {
		c.Flags().StringVar(&apiURL, "api", "", "Proxy base URL (default: MGNREGA_API_URL or http://localhost:5000)")
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(exportCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveAPI returns the --api flag or the configured proxy URL.
func resolveAPI() (string, error) {
	if apiURL != "" {
		return strings.TrimRight(apiURL, "/"), nil
	}
	if err := config.LoadEnv(); err != nil {
		return "", err
	}
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.ClientBaseURL, nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
