package main

import (
	"fmt"
	"sort"

	"github.com/buger/goterm"

	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

func (cmd *Command) printError(err error) {
	fmt.Fprint(cmd.out, goterm.Color(fmt.Sprintf("ERROR: %s", err), goterm.RED)+"\n")
}

func (cmd *Command) printOk(message string, params ...interface{}) {
	fmt.Fprint(cmd.out, goterm.Color(fmt.Sprintf("OK: "+message, params...), goterm.GREEN)+"\n")
}

func targetsTable(targets []pool.Target) string {
	t := goterm.NewTable(0, 10, 5, ' ', 0)
	fmt.Fprintf(t, "Address\tWeight\tFailures\tActive\tAdded\n")

	for _, target := range targets {
		fmt.Fprintf(t, "%s\t%d\t%s\t%d\t%s\n",
			target.Address,
			target.Weight,
			failureCell(target.ConsecutiveFailures),
			target.ActiveConnections,
			target.AddedAt.Format("2006-01-02 15:04:05"))
	}

	return t.String()
}

// targetsOverview joins live members with their metrics. Evicted targets
// that still have metrics are listed after the members.
func targetsOverview(targets []pool.Target, snap *metrics.Snapshot) string {
	t := goterm.NewTable(0, 10, 5, ' ', 0)
	fmt.Fprintf(t, "Address\tState\tSelections\tFailed\tP95\tActive\n")

	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		seen[target.Address] = true
		m := snap.Targets[target.Address]
		fmt.Fprintf(t, "%s\t%s\t%d\t%s\t%s\t%d\n",
			target.Address,
			goterm.Color("member", goterm.GREEN),
			m.Selections,
			failureCell(int(m.Failures)),
			m.P95Response,
			target.ActiveConnections)
	}

	var gone []string
	for address, m := range snap.Targets {
		if !seen[address] && m.Evicted {
			gone = append(gone, address)
		}
	}
	sort.Strings(gone)

	for _, address := range gone {
		m := snap.Targets[address]
		fmt.Fprintf(t, "%s\t%s\t%d\t%s\t%s\t-\n",
			address,
			goterm.Color("evicted", goterm.RED),
			m.Selections,
			failureCell(int(m.Failures)),
			m.P95Response)
	}

	return t.String()
}

func failureCell(n int) string {
	s := fmt.Sprintf("%d", n)
	if n != 0 {
		return goterm.Color(s, goterm.RED)
	}
	return goterm.Color(s, goterm.GREEN)
}
