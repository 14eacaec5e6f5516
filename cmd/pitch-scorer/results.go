package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fpang/pitch-scorer/internal/app"
	"github.com/fpang/pitch-scorer/internal/scoring"
)

var typeFlag string

var resultsCmd = &cobra.Command{
	Use:   "results <application-id>",
	Short: "Show cached results for an application",
	Args:  cobra.ExactArgs(1),
	RunE:  runResults,
}

func init() {
	resultsCmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Result type: behavior or skill (default: both)")
}

func runResults(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	types := scoring.ResultTypes
	if typeFlag != "" {
		t, err := scoring.ParseResultType(typeFlag)
		if err != nil {
			return err
		}
		types = []scoring.ResultType{t}
	}

	s, err := app.OpenStorage(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	found := map[scoring.ResultType]scoring.Result{}
	for _, t := range types {
		if r, ok := s.Results.Get(cmd.Context(), id, t); ok {
			found[t] = r
		}
	}
	if len(found) == 0 {
		return fmt.Errorf("no cached results for application %d", id)
	}
	if jsonFlag {
		return printJSON(found)
	}
	for _, t := range types {
		if r, ok := found[t]; ok {
			printResult(id, t, r)
		} else {
			fmt.Printf("\nApplication %d: %s not scored yet\n", id, t)
		}
	}
	return nil
}
