package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"AMDScope/internal/domain/models"
	"AMDScope/internal/handler/api"
)

type report struct {
	Summary      api.SummaryResponse `json:"summary"`
	Cycles       []api.CycleDTO      `json:"cycles"`
	ManipWindows [][2]string         `json:"manip_windows"`
}

func render(w io.Writer, format string, rep *models.CycleReport, sum *models.Summary) error {
	cr := api.NewCyclesResponse(rep)
	out := report{Summary: api.NewSummaryResponse(sum), Cycles: cr.Cycles, ManipWindows: cr.ManipWindows}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "table", "":
		return renderTable(w, out)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, r report) error {
	avg := "n/a"
	if r.Summary.AvgManipulationSize != nil {
		avg = strconv.FormatFloat(*r.Summary.AvgManipulationSize, 'f', 2, 64)
	}
	fmt.Fprintf(w, "%s %s: %d cycles, %d manipulation, avg manipulation size %s\n\n",
		r.Summary.Symbol, r.Summary.Period, r.Summary.TotalCycles, r.Summary.ManipulationCount, avg)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Start", "End", "Label", "Bars", "Minutes", "Move", "Avg Vol"}),
	)
	for _, c := range r.Cycles {
		if err := table.Append([]string{
			c.Start,
			c.End,
			c.Label,
			strconv.Itoa(c.Bars),
			strconv.FormatFloat(c.DurationMin, 'f', 0, 64),
			strconv.FormatFloat(c.PointMove, 'f', 2, 64),
			strconv.FormatInt(c.AvgVolume, 10),
		}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(r.ManipWindows) > 0 {
		fmt.Fprintln(w, "\nManipulation windows:")
		for _, mw := range r.ManipWindows {
			fmt.Fprintf(w, "  %s -> %s\n", mw[0], mw[1])
		}
	}
	return nil
}
