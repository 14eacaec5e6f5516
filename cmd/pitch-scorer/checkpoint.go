package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fpang/pitch-scorer/internal/app"
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or move the batch checkpoint",
}

var checkpointGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored checkpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.OpenStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		rec, ok := s.Checkpoint.Get(cmd.Context())
		if !ok {
			return fmt.Errorf("no checkpoint stored in %s", s.Cache.Name())
		}
		if jsonFlag {
			return printJSON(rec)
		}
		fmt.Println(renderTable(
			[]string{"Last processed id", "Updated"},
			[][]string{{fmt.Sprint(rec.LastProcessedID), rec.Timestamp}},
			[]columnAlignment{alignRight, alignLeft},
		))
		return nil
	},
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set <application-id>",
	Short: "Overwrite the checkpoint so the next batch resumes at the given id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := app.OpenStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := s.Checkpoint.SetLastProcessed(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Checkpoint set to %d\n", id)
		return nil
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointGetCmd, checkpointSetCmd)
}
