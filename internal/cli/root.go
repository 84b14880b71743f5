// Package cli wires the cobra command tree for the joi-console binary.
package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/itellico/joi-console/internal/config"
)

type App struct {
	ConfigPath string

	cfg *config.Config
}

func (a *App) Config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.ConfigPath)
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "joi-console",
		Short:        "JOI task console: mirrors the to-do service, serves the tracker core",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Run the console server (reconciliation loop + localhost API)
  joi-console serve

  # One-shot views against the remote service
  joi-console tasks list today
  joi-console tasks search "milk"
  joi-console logbook --limit 20
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "config file (default ~/.joi/console.yaml)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newLogbookCmd(app))
	return cmd
}
