// Command cidump is a tool for viewing and analyzing MIDI-CI protocol log
// files.
//
// Log files are created with the umpkbd -protocol-log flag, which captures
// every packet, SysEx stream, decoded CI message and state change crossing
// the keyboard's port.
//
// Usage:
//
//	cidump <command> [flags] <file.cilog>
//
// Commands:
//
//	view     View log file in human-readable format
//	stats    Show statistics about the log file
//	filter   Write matching events to a new log file
//	export   Export log file to JSONL or CSV
//
// Examples:
//
//	# View all events
//	cidump view keyboard.cilog
//
//	# View only decoded CI messages
//	cidump view -layer ci keyboard.cilog
//
//	# View only outgoing messages
//	cidump view -direction out keyboard.cilog
//
//	# Show statistics
//	cidump stats keyboard.cilog
//
//	# Extract one device's traffic into a smaller capture
//	cidump filter -muid 7654321 -o device.cilog keyboard.cilog
//
//	# Export to JSONL for further processing
//	cidump export -format jsonl -o keyboard.jsonl keyboard.cilog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ump-ci/umpci-go/cmd/cidump/commands"
	"github.com/ump-ci/umpci-go/pkg/log"
)

const usage = `cidump - MIDI-CI Protocol Log Analyzer

Usage:
  cidump <command> [flags] <file.cilog>

Commands:
  view     View log file in human-readable format
  stats    Show statistics about the log file
  filter   Write matching events to a new log file
  export   Export log file to JSONL or CSV

Use "cidump <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "stats":
		runStats(args)
	case "filter":
		runFilter(args)
	case "export":
		runExport(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cidump view - View log file in human-readable format

Usage:
  cidump view [flags] <file.cilog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (packet, sysex, ci, session)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	port := fs.String("port", "", "Filter by exact port ID")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	var filter log.Filter
	filter.PortID = *port

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cidump stats - Show statistics about the log file

Usage:
  cidump stats <file.cilog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cidump filter - Write matching events to a new log file

Usage:
  cidump filter [flags] -o <out.cilog> <file.cilog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	layer := fs.String("layer", "", "Filter by layer (packet, sysex, ci, session)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error)")
	port := fs.String("port", "", "Filter by exact port ID")
	muid := fs.String("muid", "", "Filter by remote MUID (hex)")
	timeStart := fs.String("time-start", "", "Events at or after this time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Events before this time (RFC3339)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file required (-o)")
		fs.Usage()
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:     *output,
		PortID:     *port,
		RemoteMUID: *muid,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Layer:      *layer,
		Direction:  *direction,
		Category:   *category,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `cidump export - Export log file to JSONL or CSV format

Usage:
  cidump export [flags] <file.cilog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
