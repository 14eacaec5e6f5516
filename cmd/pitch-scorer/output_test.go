package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/pitch-scorer/internal/batch"
	"github.com/fpang/pitch-scorer/internal/scoring"
)

func TestResultRows(t *testing.T) {
	r := scoring.Result{
		"Energy":     {Rating: 8, Reasoning: "lively"},
		"Conviction": {Rating: 6.5, Reasoning: "firm"},
	}
	rows := resultRows(r)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Conviction", "6.5", "firm"}, rows[0])
	assert.Equal(t, []string{"Energy", "8", "lively"}, rows[1])
	assert.Equal(t, "Average", rows[2][0])
	assert.Equal(t, "7.25", rows[2][1])
}

func TestReportRows(t *testing.T) {
	start := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	rows := reportRows(batch.Report{
		RunID:            "run-1",
		StartedAt:        start,
		FinishedAt:       start.Add(90 * time.Second),
		CheckpointBefore: 103,
		CheckpointAfter:  103,
		Attempted:        2,
		Processed:        1,
		Failed:           1,
		FailuresByKind:   map[string]int{"media_acquisition": 1},
		FailedIDs:        []int{104},
	})

	assert.Contains(t, rows, []string{"Duration", "1m30s"})
	assert.Contains(t, rows, []string{"Failed: media_acquisition", "1"})
	assert.Contains(t, rows, []string{"Failed ids", "104"})
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"x"}}, nil)
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "x")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestParseID(t *testing.T) {
	id, err := parseID("104")
	require.NoError(t, err)
	assert.Equal(t, 104, id)

	_, err = parseID("10.5")
	assert.Error(t, err)
}
