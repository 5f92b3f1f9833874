package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/ritmaker/internal/domain"
)

// Console implementa ports.Reporter.
type Console struct {
	out   io.Writer
	quiet bool // solo imprime ticks con actividad (fills, órdenes o cancels)
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole(quiet bool) *Console {
	return &Console{out: os.Stdout, quiet: quiet}
}

// NewConsoleWriter crea un reporter para tests.
func NewConsoleWriter(w io.Writer, quiet bool) *Console {
	return &Console{out: w, quiet: quiet}
}

// ReportTick imprime una línea compacta por tick.
func (c *Console) ReportTick(_ context.Context, r domain.TickReport) {
	active := r.Filled || r.Placed > 0 || r.Cancelled > 0
	if c.quiet && !active {
		return
	}

	at := r.At
	if at.IsZero() {
		at = time.Now()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] t=%d", at.Format("15:04:05"), r.Tick)
	if r.Skipped() {
		fmt.Fprintf(&sb, " skip:%s", r.Skip)
		if r.Ticker != "" {
			fmt.Fprintf(&sb, " %s %.2f/%.2f", r.Ticker, r.BestBid, r.BestAsk)
		}
		fmt.Fprintln(c.out, sb.String())
		return
	}

	fmt.Fprintf(&sb, " %s %s mkt %.2f/%.2f pos %d", r.Phase, r.Ticker, r.BestBid, r.BestAsk, r.Position)
	fmt.Fprintf(&sb, " | bid %s ask %s",
		sideLabel(r.AllowBuy, r.BidQty, r.Bid),
		sideLabel(r.AllowSell, r.AskQty, r.Ask))
	if r.Filled {
		sb.WriteString(" FILL")
	}
	if r.Placed > 0 || r.Cancelled > 0 {
		fmt.Fprintf(&sb, " +%d/-%d", r.Placed, r.Cancelled)
	}
	fmt.Fprintln(c.out, sb.String())
}

// PrintSummary imprime el informe de fin de ejecución.
func (c *Console) PrintSummary(s domain.RunSummary) {
	fmt.Fprintf(c.out, "\n========================================================\n")
	fmt.Fprintf(c.out, "  RUN SUMMARY  %s (%s)\n", s.RunID, s.Variant)
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(c.out, "  started %s, %s elapsed\n",
			s.StartedAt.Format("15:04:05"), time.Since(s.StartedAt).Truncate(time.Second))
	}
	fmt.Fprintf(c.out, "========================================================\n\n")

	if s.Ticks == 0 {
		fmt.Fprintln(c.out, "  No ticks recorded.")
		return
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Ticks", "Quoted", "Skipped", "Fill ticks", "Placed", "Cancelled", "Churn")
	tbl.Append(
		fmt.Sprintf("%d", s.Ticks),
		fmt.Sprintf("%d", s.QuotedTicks),
		fmt.Sprintf("%d", s.SkippedTicks),
		fmt.Sprintf("%d", s.FillTicks),
		fmt.Sprintf("%d", s.Placed),
		fmt.Sprintf("%d", s.Cancelled),
		churn(s),
	)
	tbl.Render()

	if len(s.SkipsByReason) > 0 {
		fmt.Fprintf(c.out, "\n  --- SKIPS ---\n")
		tbl := tablewriter.NewWriter(c.out)
		tbl.Header("Reason", "Ticks", "Share")
		for _, reason := range sortedReasons(s.SkipsByReason) {
			n := s.SkipsByReason[reason]
			tbl.Append(string(reason), fmt.Sprintf("%d", n),
				fmt.Sprintf("%.0f%%", 100*float64(n)/float64(s.Ticks)))
		}
		tbl.Render()
	}

	if len(s.FinalPosition) > 0 {
		fmt.Fprintf(c.out, "\n  --- FINAL POSITION ---\n")
		tickers := make([]string, 0, len(s.FinalPosition))
		for t := range s.FinalPosition {
			tickers = append(tickers, t)
		}
		sort.Strings(tickers)
		for _, t := range tickers {
			fmt.Fprintf(c.out, "  %-8s %8d\n", t, s.FinalPosition[t])
		}
	}
}

func sideLabel(allowed bool, qty int, price float64) string {
	if !allowed {
		return "blocked"
	}
	return fmt.Sprintf("%d@%.2f", qty, price)
}

// churn son las órdenes colocadas por tick cotizado.
func churn(s domain.RunSummary) string {
	if s.QuotedTicks == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", float64(s.Placed)/float64(s.QuotedTicks))
}

func sortedReasons(m map[domain.SkipReason]int) []domain.SkipReason {
	out := make([]domain.SkipReason, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] != m[out[j]] {
			return m[out[i]] > m[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
