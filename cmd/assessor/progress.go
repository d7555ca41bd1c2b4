package main

import (
	"fmt"

	"pathways_backend/internal/model"

	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress (module|path) <id>",
	Short: "Show module or path progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := transportFor(cmd)
		if err != nil {
			return err
		}

		var snap model.ProgressSnapshot
		switch args[0] {
		case "module":
			snap, err = tr.ModuleProgress(cmd.Context(), args[1])
		case "path":
			snap, err = tr.PathProgress(cmd.Context(), args[1])
		default:
			return fmt.Errorf("unknown kind %q, want module or path", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render(args[1]), progressBar(snap.PercentComplete, 30))
		fmt.Fprintln(out, dimStyle.Render(snap.Label))
		return nil
	},
}
