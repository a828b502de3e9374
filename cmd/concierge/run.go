// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/session"
)

// runOnce processes one message in a fresh session and prints the result.
func runOnce(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return fmt.Errorf("run requires a message, e.g. concierge run \"I want to check out early\"")
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sess := a.store.Create()
	runErr := a.engine.Run(ctx, sess.ID, message)

	snapshot, err := a.store.Get(sess.ID)
	if err != nil {
		return err
	}
	if flags.JSON {
		printJSON(snapshot)
	} else {
		printRun(os.Stdout, snapshot)
	}
	return runErr
}

func printRun(w io.Writer, snapshot session.Snapshot) {
	fmt.Fprintf(w, "Session: %s (%s)\n", snapshot.ID, snapshot.Status)
	for _, action := range snapshot.Actions {
		fmt.Fprintf(w, "  %2d  %-8s %-19s %s\n", action.Index, action.Status, action.Kind, action.Title)
		if action.Summary != "" {
			fmt.Fprintf(w, "      %s\n", truncateMessage(action.Summary, 100))
		}
	}
	if snapshot.FinalReply != nil {
		fmt.Fprintf(w, "\nReply: %s\n", *snapshot.FinalReply)
	}
}

// formatDetail renders an action detail as compact JSON.
func formatDetail(detail map[string]any) string {
	if len(detail) == 0 {
		return ""
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return ""
	}
	return string(data)
}
