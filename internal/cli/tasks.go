package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/itellico/joi-console/internal/gateway"
	"github.com/itellico/joi-console/internal/model"
	"github.com/itellico/joi-console/internal/view"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "One-shot task views against the remote service",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksSearchCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var areaID, projectID string

	cmd := &cobra.Command{
		Use:   "list [bucket]",
		Short: "Fetch and compose one selection (bucket, --area, or --project)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sel view.Selection
			switch {
			case areaID != "":
				sel = view.AreaSelection(areaID)
			case projectID != "":
				sel = view.ProjectSelection(projectID)
			case len(args) == 1:
				list, ok := model.ParseList(args[0])
				if !ok {
					return fmt.Errorf("unknown bucket %q (expected inbox|today|upcoming|anytime|someday)", args[0])
				}
				sel = view.ListSelection(list)
			default:
				sel = view.ListSelection(model.ListToday)
			}

			snap, err := fetchSnapshot(app)
			if err != nil {
				return err
			}
			printSections(cmd.OutOrStdout(), view.Compose(snap, sel))
			return nil
		},
	}
	cmd.Flags().StringVar(&areaID, "area", "", "compose an area selection")
	cmd.Flags().StringVar(&projectID, "project", "", "compose a project selection")
	return cmd
}

func newTasksSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the whole snapshot, selection-independent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := fetchSnapshot(app)
			if err != nil {
				return err
			}
			res := view.Search(args[0], snap)

			out := cmd.OutOrStdout()
			for _, group := range res.ByList {
				fmt.Fprintln(out, styleHeader.Render(string(group.List)))
				for _, t := range group.Tasks {
					fmt.Fprintln(out, renderTask(t))
				}
			}
			if len(res.Completed) > 0 {
				fmt.Fprintln(out, styleHeader.Render("logbook"))
				for _, c := range res.Completed {
					fmt.Fprintf(out, "  %s %s\n", styleDone.Render("✓"), c.Title)
				}
			}
			if len(res.Active) == 0 && len(res.Completed) == 0 {
				fmt.Fprintln(out, styleFaint.Render("no matches"))
			}
			return nil
		},
	}
}

func fetchSnapshot(app *App) (model.Snapshot, error) {
	cfg, err := app.Config()
	if err != nil {
		return model.Snapshot{}, err
	}
	gw, err := gateway.New(gateway.Config{BaseURL: cfg.Gateway.BaseURL, Timeout: cfg.Gateway.Timeout})
	if err != nil {
		return model.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := gw.FetchAll(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	completed, err := gw.FetchLogbook(ctx, cfg.Reconcile.LogbookLimit)
	if err != nil {
		return model.Snapshot{}, err
	}
	snap.Completed = completed
	return snap, nil
}

func renderTask(t model.Task) string {
	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(styleBullet.Render("○"))
	b.WriteString(" ")
	b.WriteString(t.Title)
	if t.ChecklistTotal > 0 {
		b.WriteString(" ")
		b.WriteString(styleFaint.Render(fmt.Sprintf("[%d/%d]", t.ChecklistDone, t.ChecklistTotal)))
	}
	if t.Deadline != "" {
		b.WriteString(" ")
		b.WriteString(styleDeadline.Render("⚑ " + t.Deadline))
	}
	for _, tag := range t.Tags {
		b.WriteString(" ")
		b.WriteString(styleTag.Render("#" + tag))
	}
	return b.String()
}
