package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/flasharb/business/arbitrage/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Flash-Swap Arbitrage Engine Started")
	fmt.Fprintln(r.out, "====================================")
	return nil
}

// Report outputs the outcome of one arbitrage run to the console.
func (r *ConsoleReporter) Report(report *domain.Report) {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	if report.Succeeded() {
		fmt.Fprintln(r.out, "ARBITRAGE SETTLED")
	} else {
		fmt.Fprintln(r.out, "ARBITRAGE REVERTED")
	}
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Timestamp:      %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(r.out, "State:          %s\n", report.State)
	fmt.Fprintf(r.out, "Origin Pool:    %s\n", report.OriginPool.Hex())
	fmt.Fprintf(r.out, "Target Pool:    %s\n", report.TargetPool.Hex())
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "AMOUNTS")
	if report.BorrowedAmount != nil {
		fmt.Fprintf(r.out, "  Borrowed:       %s (%s)\n", report.BorrowedAmount, report.BorrowedToken.Hex())
	}
	if report.DebtAmount != nil {
		fmt.Fprintf(r.out, "  Debt:           %s (%s)\n", report.DebtAmount, report.DebtToken.Hex())
	}
	if report.Received != nil {
		fmt.Fprintf(r.out, "  Received:       %s\n", report.Received)
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	if report.Succeeded() {
		fmt.Fprintln(r.out, "PROFIT")
		fmt.Fprintf(r.out, "  Forwarded:      %s\n", report.ProfitDisplay)
	} else if report.Err != nil {
		fmt.Fprintln(r.out, "FAILURE")
		fmt.Fprintf(r.out, "  Reason:         %v\n", report.Err)
	}
	fmt.Fprintf(r.out, "Duration:       %s\n", report.Duration)
	fmt.Fprintln(r.out, "================================================================================")
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Flash-Swap Arbitrage Engine Stopped")
	return nil
}
