// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements the concierge CLI: the HTTP service, one-shot
// runs, catalogue inspection and the MCP stdio server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type globalFlags struct {
	ConfigArgs []string
	JSON       bool
	Help       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(global, err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}
	if args[0] == "version" {
		printVersion(global)
		return
	}
	if args[0] == "help" {
		printUsage()
		return
	}

	cfg, err := config.LoadWithCLI(global.ConfigArgs)
	if err != nil {
		fatal(global, WrapConfigError(err))
	}

	switch args[0] {
	case "serve":
		ensureNoArgs(global, args[1:])
		err = runServe(ctx, global, cfg)
	case "run":
		err = runOnce(ctx, global, cfg, args[1:])
	case "skills":
		ensureNoArgs(global, args[1:])
		err = runSkills(global, cfg)
	case "tools":
		ensureNoArgs(global, args[1:])
		err = runTools(global, cfg)
	case "orders":
		ensureNoArgs(global, args[1:])
		err = runOrders(global)
	case "history":
		err = runHistory(ctx, global, cfg, args[1:])
	case "mcp":
		ensureNoArgs(global, args[1:])
		err = runMCP(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		fatal(global, err)
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	var flags globalFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config", arg == "--set", arg == "--profile":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for %s", arg)
			}
			flags.ConfigArgs = append(flags.ConfigArgs, arg, args[i+1])
			i++
		case strings.HasPrefix(arg, "--config="),
			strings.HasPrefix(arg, "--set="),
			strings.HasPrefix(arg, "--profile="):
			flags.ConfigArgs = append(flags.ConfigArgs, arg)
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

func printJSON(value any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(value)
}

func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func writeRow(writer *tabwriter.Writer, cols ...string) {
	for i := range cols {
		cols[i] = normalizeCell(cols[i])
	}
	fmt.Fprintln(writer, strings.Join(cols, "\t"))
}

func normalizeCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	if value == "" {
		return "-"
	}
	return value
}

func truncateMessage(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Local().Format("2006-01-02 15:04:05")
}

func printVersion(flags globalFlags) {
	if flags.JSON {
		printJSON(map[string]string{"version": version})
		return
	}
	fmt.Printf("concierge %s\n", version)
}

func printUsage() {
	fmt.Print(`Usage: concierge [global flags] <command> [args]

Global flags:
  --config <path>     YAML configuration file
  --profile <name>    overlay config.<name>.yaml next to --config
  --set key=value     override a configuration key (repeatable)
  --json              machine readable output
  -h, --help          show this help

Commands:
  serve               start the HTTP API
  run "<message>"     process one message and print the action log and reply
  skills              list the skill catalogue
  tools               list the business tools
  orders              list the demo orders
  history [--limit n] list recorded executions
  mcp                 serve the business tools over MCP (stdio)
  version             print the version
`)
}

func fatal(flags globalFlags, err error) {
	cliErr := AsCLIError(err)
	cliErr.PrintError(flags.JSON)
	os.Exit(1)
}

func ensureNoArgs(flags globalFlags, args []string) {
	if len(args) > 0 {
		fatal(flags, fmt.Errorf("unexpected arguments: %s", strings.Join(args, " ")))
	}
}
