package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/itellico/joi-console/internal/gateway"
)

func newLogbookCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logbook",
		Short: "Fetch recently completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Config()
			if err != nil {
				return err
			}
			gw, err := gateway.New(gateway.Config{BaseURL: cfg.Gateway.BaseURL, Timeout: cfg.Gateway.Timeout})
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			entries, err := gw.FetchLogbook(ctx, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				where := e.ProjectTitle
				if where == "" {
					where = e.AreaTitle
				}
				line := fmt.Sprintf("%s %s", styleDone.Render("✓"), e.Title)
				if where != "" {
					line += " " + styleFaint.Render(where)
				}
				line += " " + styleFaint.Render(e.CompletedAt.Format("2006-01-02 15:04"))
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}
