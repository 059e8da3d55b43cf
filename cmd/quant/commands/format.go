package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/momentum/backend/internal/brain"
	"github.com/wonny/momentum/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed title followed by sorted key/value lines
func PrintHeader(title string, fields map[string]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		PrintKeyValue(k, fields[k], 10)
	}
	PrintSeparator()
}

// PrintRunResult prints one block per cycle plus the run totals
func PrintRunResult(r *brain.RunResult) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Run %s  (%s)\n", r.RunID, r.Date.Format("2006-01-02"))
	PrintSeparator()

	if len(r.Due) == 0 {
		PrintInfo("No timeframe is due today (use --force to run anyway)")
		PrintDoubleSeparator()
		return
	}
	if r.Quality != nil && !r.Quality.Passed {
		PrintWarning(fmt.Sprintf("Data quality %.1f%% below threshold: %s",
			r.Quality.QualityScore*100, strings.Join(r.Quality.Issues, "; ")))
	}

	for _, c := range r.Cycles {
		PrintCycle(c)
	}

	failed := len(r.Failed())
	fmt.Println()
	if failed == 0 {
		PrintSuccess(fmt.Sprintf("%d cycles finished in %s", len(r.Cycles), r.Duration.Round(time.Millisecond)))
	} else {
		PrintError(fmt.Sprintf("%d of %d cycles failed (%s)", failed, len(r.Cycles), r.Duration.Round(time.Millisecond)))
	}
	PrintDoubleSeparator()
}

// PrintCycle prints the outcome of one (strategy, timeframe) cycle
func PrintCycle(c *contracts.CycleRecord) {
	fmt.Println()
	fmt.Printf("[%s/%s] %s\n", c.Strategy, c.Timeframe, strings.ToUpper(c.Status))
	if c.Error != "" {
		PrintKeyValue("Error", c.Error, 10)
		return
	}

	PrintKeyValue("Survivors", fmt.Sprintf("%d", c.Survivors), 10)
	PrintKeyValue("Longs", joinOrDash(c.Longs), 10)
	PrintKeyValue("Shorts", joinOrDash(c.Shorts), 10)
	PrintKeyValue("Value", fmt.Sprintf("%.2f", c.TotalValue), 10)
	PrintKeyValue("Cash", fmt.Sprintf("%.2f", c.Cash), 10)
	if c.ReportPath != "" {
		PrintKeyValue("Report", c.ReportPath, 10)
	}
	if r := c.Risk; r != nil && r.Samples > 0 {
		PrintKeyValue("Risk", fmt.Sprintf("VaR %.2f%% / CVaR %.2f%% (1d, %.0f%%), %dd VaR %.2f%%",
			r.VaR*100, r.CVaR*100, r.Confidence*100, r.HoldingDays, r.HoldingVaR*100), 10)
		for _, b := range r.Breaches {
			PrintWarning("Risk limit: " + b)
		}
	}

	if len(c.Orders) == 0 {
		PrintKeyValue("Orders", "none", 10)
		return
	}
	widths := []int{8, 6, 8}
	PrintTableHeader([]string{"Ticker", "Action", "Quantity"}, widths)
	for _, o := range c.Orders {
		fmt.Print("   ")
		PrintTableRow([]string{o.Ticker, string(o.Action), fmt.Sprintf("%d", o.Quantity)}, widths)
	}
	if c.Executed {
		PrintKeyValue("Fills", fmt.Sprintf("%d/%d", len(c.Fills), len(c.Orders)), 10)
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	fmt.Print("   ")
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Printf("   %s\n", strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
