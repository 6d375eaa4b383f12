// Package notify implements ports.Notifier as a console reporter.
// Adapted from AlejandroRuiz99-polybot's internal/adapters/notify/console.go
// (tablewriter-rendered opportunity table plus a compact one-line
// summary), narrowed from the reward-farming category breakdown to the
// profit/status columns this domain's Opportunity and ExecutionResult
// carry.
package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/triarb/triarb/internal/domain"
)

// Console implements ports.Notifier, printing to an io.Writer.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole creates a notifier writing to stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter creates a notifier for tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// NotifyOpportunities implements ports.Notifier.
func (c *Console) NotifyOpportunities(_ context.Context, opps []domain.Opportunity) error {
	if len(opps) == 0 {
		fmt.Fprintf(c.out, "[%s] no opportunities found\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printTable(opps)
	} else {
		c.printCompact(opps)
	}
	return nil
}

// NotifyExecution implements ports.Notifier.
func (c *Console) NotifyExecution(_ context.Context, result domain.ExecutionResult) error {
	fmt.Fprintf(c.out, "[%s] execution %s status=%s profit=%.6f commission=%.6f\n",
		result.FinishedAt.Format("15:04:05"), result.Opportunity.Path.ID, result.Status,
		result.Profit, result.Commission)
	if result.Recovery != nil {
		fmt.Fprintf(c.out, "  recovery: asset=%s action=%s success=%v recovered=%.6f\n",
			result.Recovery.Asset, result.Recovery.Action, result.Recovery.Success, result.Recovery.RecoveredAmount)
	}
	return nil
}

func (c *Console) printCompact(opps []domain.Opportunity) {
	now := time.Now().Format("15:04:05")
	fmt.Fprintf(c.out, "[%s] %d opportunities", now, len(opps))
	for i, opp := range opps {
		if i >= 4 {
			break
		}
		fmt.Fprintf(c.out, " | %s %.3f%%", opp.Path.ID[:8], opp.ProfitPct)
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printTable(opps []domain.Opportunity) {
	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Triangle", "Profit %", "Gross", "Net", "Max Qty")

	for i, opp := range opps {
		table.Append(
			fmt.Sprintf("%d", i+1),
			opp.Path.ID[:8],
			fmt.Sprintf("%.4f", opp.ProfitPct),
			fmt.Sprintf("%.6f", opp.GrossReturn),
			fmt.Sprintf("%.6f", opp.NetReturn),
			fmt.Sprintf("%.4f", opp.MaxTradeQty),
		)
	}

	table.Render()
}
