package main

import (
	"fmt"
	"strings"

	"github.com/lovelite/tilecat/internal/catalog"
	"github.com/lovelite/tilecat/internal/entity"
)

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

func printDiagnostic(d catalog.Diagnostic) {
	color := "33"
	if d.Severity == catalog.SeverityError {
		color = "31"
	}
	fmt.Printf("  \033[%sm%-7s\033[0m %4d  %v\n", color, d.Severity, d.TileID, d.Err)
}

func printReport(cat *catalog.Catalog, report *catalog.Report) {
	printSection("sources")
	printStat("tables", report.Tables)
	printStat("tiles", report.Tiles)
	fmt.Println()

	printSection("templates")
	for _, kind := range cat.Kinds() {
		printStat(kind, cat.CountOfKind(kind))
	}
	printStat("total", cat.Count())
	fmt.Println()

	if len(report.Diagnostics) > 0 {
		printSection("diagnostics")
		for _, d := range report.Diagnostics {
			printDiagnostic(d)
		}
		fmt.Println()
	}

	if report.HasErrors() {
		fmt.Printf("  \033[31m✗\033[0m %d tiles excluded, %d warnings\n", len(report.Excluded()), report.WarningCount())
	} else {
		printOK(fmt.Sprintf("catalog loaded, %d warnings", report.WarningCount()))
	}
	fmt.Printf("  \033[90mfingerprint %s\033[0m\n\n", cat.Fingerprint())
}

func printTemplate(id int, t *entity.Template, diags []catalog.Diagnostic) {
	if t == nil {
		fmt.Printf("  %4d  \033[90m(not in catalog)\033[0m\n", id)
	} else {
		fmt.Printf("  %4d  %s\n", id, t.Describe())
	}
	for _, d := range diags {
		printDiagnostic(d)
	}
}
