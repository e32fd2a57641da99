package app

import (
	"context"
	"io"
	"testing"

	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/business/arbitrage/domain"
	"github.com/fd1az/flasharb/internal/logger"
)

// captureReporter records reports for assertions.
type captureReporter struct {
	reports []*domain.Report
}

func (r *captureReporter) Start(ctx context.Context) error { return nil }
func (r *captureReporter) Report(report *domain.Report)    { r.reports = append(r.reports, report) }
func (r *captureReporter) Stop() error                     { return nil }

func newScannerFixture(t *testing.T, r2A, r2B uint64) (*Scanner, *captureReporter) {
	t.Helper()

	ex, orch := newFixture(t, 1_000_000, 1_000_000, r2A, r2B)

	reporter := &captureReporter{}
	resolver := &ledgerResolver{exchange: ex}
	log := logger.New(io.Discard, logger.LevelError, "test", nil)

	scanner := NewScanner(orch, resolver, reporter, ScannerConfig{
		TokenA:        tokenA,
		TokenB:        tokenB,
		BorrowSizesA:  []*uint256.Int{u(1_000), u(10_000)},
		BorrowSizesB:  []*uint256.Int{u(1_000), u(10_000)},
		Operator:      operator,
		RegistryOne:   registryOne,
		RegistryTwo:   registryTwo,
		PollPerMinute: 60,
	}, log)

	return scanner, reporter
}

func TestScanner_ExecutesProfitableOpportunity(t *testing.T) {
	scanner, reporter := newScannerFixture(t, 1_000_000, 1_100_000)

	scanner.scan(context.Background())

	if len(reporter.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reporter.reports))
	}
	report := reporter.reports[0]
	if !report.Succeeded() {
		t.Fatalf("state = %s, want profit_forwarded (err: %v)", report.State, report.Err)
	}
	// The larger borrow size wins: 10000 yields more than 1000.
	if report.BorrowedAmount.Uint64() != 10_000 {
		t.Errorf("borrowed = %s, want 10000", report.BorrowedAmount)
	}
	if report.BorrowedToken != tokenA {
		t.Errorf("borrowed token = %s, want token A", report.BorrowedToken.Hex())
	}
}

func TestScanner_QuietWhenBalanced(t *testing.T) {
	scanner, reporter := newScannerFixture(t, 1_000_000, 1_000_000)

	scanner.scan(context.Background())

	if len(reporter.reports) != 0 {
		t.Errorf("reports = %d, want 0 on balanced pools", len(reporter.reports))
	}
}

func TestScanner_PicksReverseDirection(t *testing.T) {
	// Pool two prices token B above pool one: the winning borrow is B.
	scanner, reporter := newScannerFixture(t, 1_100_000, 1_000_000)

	scanner.scan(context.Background())

	if len(reporter.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reporter.reports))
	}
	if got := reporter.reports[0].BorrowedToken; got != tokenB {
		t.Errorf("borrowed token = %s, want token B", got.Hex())
	}
}

func TestScanner_PerDirectionFloor(t *testing.T) {
	// Token B is the profitable borrow here; its floor alone decides
	// whether the run executes.
	scanner, reporter := newScannerFixture(t, 1_100_000, 1_000_000)
	scanner.cfg.MinProfitB = u(1_000_000)

	scanner.scan(context.Background())

	if len(reporter.reports) != 0 {
		t.Fatalf("reports = %d, want 0 below the direction's floor", len(reporter.reports))
	}

	scanner.cfg.MinProfitB = u(1)
	scanner.scan(context.Background())

	if len(reporter.reports) != 1 {
		t.Fatalf("reports = %d, want 1 above the direction's floor", len(reporter.reports))
	}
	if got := reporter.reports[0].BorrowedToken; got != tokenB {
		t.Errorf("borrowed token = %s, want token B", got.Hex())
	}
}

func TestScanner_SimulateMatchesExecution(t *testing.T) {
	scanner, reporter := newScannerFixture(t, 1_000_000, 1_100_000)

	profit, err := scanner.simulate(context.Background(), tokenA, tokenB, u(10_000), nil)
	if err != nil {
		t.Fatalf("simulate error: %v", err)
	}
	if profit == nil {
		t.Fatal("simulate found no profit")
	}

	scanner.scan(context.Background())

	if len(reporter.reports) != 1 {
		t.Fatalf("reports = %d, want 1", len(reporter.reports))
	}
	if got := reporter.reports[0].Profit; got.Cmp(profit) != 0 {
		t.Errorf("executed profit %s != simulated %s", got, profit)
	}
}
