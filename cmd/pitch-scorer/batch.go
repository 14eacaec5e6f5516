package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fpang/pitch-scorer/internal/app"
	"github.com/fpang/pitch-scorer/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run one incremental batch pass now",
	Long: `Batch resumes at the stored checkpoint, scores every application from the
checkpointed id to the end of the sheet, and advances the checkpoint to the
last id that succeeded. Failed ids are logged and skipped.`,
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	release, err := acquireLock(cfg.LockFile)
	if err != nil {
		return err
	}
	defer release()

	a, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	rep := a.Batch.Run(cmd.Context())
	if jsonFlag {
		return printJSON(rep)
	}
	fmt.Println(renderTable([]string{"Field", "Value"}, reportRows(rep), []columnAlignment{alignLeft, alignRight}))
	if rep.SourceError != "" {
		return fmt.Errorf("application source unavailable: %s", rep.SourceError)
	}
	return nil
}

func reportRows(rep batch.Report) [][]string {
	rows := [][]string{
		{"Run ID", rep.RunID},
		{"Checkpoint before", strconv.Itoa(rep.CheckpointBefore)},
		{"Checkpoint after", strconv.Itoa(rep.CheckpointAfter)},
		{"Attempted", strconv.Itoa(rep.Attempted)},
		{"Processed", strconv.Itoa(rep.Processed)},
		{"Failed", strconv.Itoa(rep.Failed)},
		{"Duration", rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond).String()},
	}
	kinds := make([]string, 0, len(rep.FailuresByKind))
	for k := range rep.FailuresByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		rows = append(rows, []string{"Failed: " + k, strconv.Itoa(rep.FailuresByKind[k])})
	}
	if len(rep.FailedIDs) > 0 {
		ids := make([]string, len(rep.FailedIDs))
		for i, id := range rep.FailedIDs {
			ids[i] = strconv.Itoa(id)
		}
		rows = append(rows, []string{"Failed ids", strings.Join(ids, ", ")})
	}
	return rows
}
