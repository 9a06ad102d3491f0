package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"namenizer/internal/journal"
	"namenizer/internal/normalize"
	"namenizer/internal/scanner"
	"namenizer/shared/types"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
)

func printTree(root *shared.DirectoryNode) {
	root.Walk(func(n *shared.DirectoryNode, depth int) {
		if depth == 0 {
			fmt.Println(blue(n.Path))
			return
		}
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), blue(n.Name+"/"))
	})
}

func formatLabel(name string, l shared.Label, codepoints bool) string {
	if !l.IsDecomposed() {
		return green(l.String())
	}
	if codepoints {
		return yellow("NFD: " + normalize.Codepoints(name))
	}
	return yellow(l.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func printRecords(records []shared.FileRecord, codepoints bool) {
	if len(records) == 0 {
		fmt.Println("No files")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED\tFORM")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.Name,
			humanize.Bytes(uint64(r.Size)),
			formatTime(r.ModTime),
			formatLabel(r.Name, r.Label, codepoints),
		)
	}
	tw.Flush()

	fmt.Println()
	printSummary(records)
}

func printSummary(records []shared.FileRecord) {
	s := scanner.Summarize(records)
	nfd := fmt.Sprintf("%d NFD", s.NFD)
	if s.NFD > 0 {
		nfd = yellow(nfd)
	}
	fmt.Printf("%d files: %s, %s\n", s.Total, green(fmt.Sprintf("%d NFC", s.NFC)), nfd)
}

func printResult(result shared.BatchResult) {
	for _, o := range result.Outcomes {
		switch {
		case o.Skipped:
			fmt.Printf("\t%s %s\n", blue("-"), o.Path)
		case o.Err != nil:
			fmt.Printf("\t%s %s: %v\n", red("✗"), o.Path, o.Err)
		default:
			fmt.Printf("\t%s %s\n", green("✓"), o.To)
		}
	}

	if result.OK() {
		fmt.Printf("Renamed %d file(s) to NFC\n", len(result.Renamed()))
		return
	}
	if result.Err != nil {
		fmt.Println(red(result.Err.Error()))
	}
	if strings.TrimSpace(result.Output) != "" {
		fmt.Println(strings.TrimRight(result.Output, "\n"))
	}
	fmt.Printf("%s: %d of %d file(s) could not be renamed\n",
		red("Rename failed"), len(result.Failures()), len(result.Outcomes))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printEntry(e *journal.Entry, verbose bool) {
	status := green("ok")
	if !e.OK {
		status = red("failed")
	}
	renamed := 0
	for _, r := range e.Renames {
		if !r.Skipped && r.Error == "" {
			renamed++
		}
	}
	fmt.Printf("%s  %s  %-6s  %s  %d/%d renamed\n",
		shortID(e.ID),
		e.CreatedAt.Format(time.RFC3339),
		e.Strategy,
		status,
		renamed,
		len(e.Renames),
	)

	if !verbose {
		return
	}
	for _, r := range e.Renames {
		switch {
		case r.Skipped:
			fmt.Printf("\t%s %s\n", blue("-"), r.Path)
		case r.Error != "":
			fmt.Printf("\t%s %s: %s\n", red("✗"), r.Path, r.Error)
		default:
			fmt.Printf("\t%s %s\n", green("✓"), r.To)
		}
	}
	if e.Error != "" {
		fmt.Println(red(e.Error))
	}
	if len(e.Output) > 0 {
		fmt.Println(strings.TrimRight(string(e.Output), "\n"))
	}
}
