package command

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
)

const callsMetric = metric.Namespace + "_client_calls_total"

// StatsCommand returns the stats command. Counters live for the process,
// so it is most useful inside the shell.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show call counts by operation and outcome",
		Action: stats,
	}
}

type statRow struct {
	Operation string `json:"operation"`
	Outcome   string `json:"outcome"`
	Count     int    `json:"count"`
}

func stats(c *cli.Context) error {
	rt := runtimeFrom(c)

	families, err := rt.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var rows []statRow
	for _, mf := range families {
		if mf.GetName() != callsMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			row := statRow{Count: int(m.GetCounter().GetValue())}
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "operation":
					row.Operation = lp.GetValue()
				case "outcome":
					row.Outcome = lp.GetValue()
				}
			}
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(rt.stdout, "No calls recorded")
		return nil
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Operation != rows[j].Operation {
			return rows[i].Operation < rows[j].Operation
		}
		return rows[i].Outcome < rows[j].Outcome
	})
	return rt.render(rows)
}
