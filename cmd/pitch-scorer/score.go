package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fpang/pitch-scorer/internal/app"
	"github.com/fpang/pitch-scorer/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score <application-id>",
	Short: "Score a single application, reusing cached stages",
	Args:  cobra.ExactArgs(1),
	RunE:  runScore,
}

func runScore(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	behavior, skill, err := a.Pipeline.Run(cmd.Context(), id)
	if err != nil {
		return err
	}
	if jsonFlag {
		return printJSON(map[string]interface{}{"id": id, "behavior": behavior, "skill": skill})
	}
	printResult(id, scoring.Behavior, behavior)
	printResult(id, scoring.Skill, skill)
	return nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid application id %q", s)
	}
	return id, nil
}
