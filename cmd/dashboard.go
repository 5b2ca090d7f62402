package cmd

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mgnrega/dashboard/apiclient"
	"github.com/mgnrega/dashboard/logger"
	"github.com/mgnrega/dashboard/tui"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the terminal dashboard",
	Long: `Browse MGNREGA records through a running proxy.

Keys: s state, d district, c clear, arrows or n/p page, o sort column,
r reverse, v line/bar chart, e export PDF, R reload, q quit.`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	base, err := resolveAPI()
	if err != nil {
		return err
	}
	// The terminal belongs to the dashboard.
	logger.Log.SetOutput(io.Discard)

	app := tui.New(apiclient.New(base, newHTTPClient()))
	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	return err
}
