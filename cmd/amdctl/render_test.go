package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AMDScope/internal/domain/models"
)

func sampleReport() (*models.CycleReport, *models.Summary) {
	t0 := time.Date(2024, 3, 8, 14, 30, 0, 0, time.UTC)
	avg := 12.35
	rep := &models.CycleReport{
		Symbol: "NQ=F",
		Period: "7d",
		Cycles: []models.Cycle{{
			Start: t0, End: t0.Add(25 * time.Minute), Label: models.LabelManipulation,
			DurationMin: 25, PointMove: -12.345, AbsPointMove: 12.345, AvgVolume: 1500, Bars: 6,
		}},
		Windows: []models.ManipulationWindow{{Start: t0.Add(10 * time.Minute), End: t0.Add(15 * time.Minute)}},
	}
	return rep, &models.Summary{Symbol: "NQ=F", Period: "7d", TotalCycles: 1, ManipulationCount: 1, AvgManipulationSize: &avg}
}

func TestRenderJSON(t *testing.T) {
	rep, sum := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, render(&buf, "json", rep, sum))

	var got report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got.Summary.TotalCycles)
	require.Len(t, got.Cycles, 1)
	assert.Equal(t, "manipulation", got.Cycles[0].Label)
	assert.Equal(t, -12.35, got.Cycles[0].PointMove)
	assert.Equal(t, [][2]string{{"2024-03-08T14:40:00Z", "2024-03-08T14:45:00Z"}}, got.ManipWindows)
}

func TestRenderTable(t *testing.T) {
	rep, sum := sampleReport()
	var buf bytes.Buffer
	require.NoError(t, render(&buf, "table", rep, sum))

	out := buf.String()
	assert.Contains(t, out, "1 cycles, 1 manipulation, avg manipulation size 12.35")
	assert.Contains(t, out, "manipulation")
	assert.Contains(t, out, "2024-03-08T14:40:00Z -> 2024-03-08T14:45:00Z")
}

func TestRenderTableNullAverage(t *testing.T) {
	rep := &models.CycleReport{Symbol: "ES=F", Period: "1d"}
	sum := &models.Summary{Symbol: "ES=F", Period: "1d"}
	var buf bytes.Buffer
	require.NoError(t, render(&buf, "table", rep, sum))
	assert.Contains(t, buf.String(), "avg manipulation size n/a")
}

func TestRenderUnknownFormat(t *testing.T) {
	rep, sum := sampleReport()
	assert.Error(t, render(&bytes.Buffer{}, "xml", rep, sum))
}
