// Copyright 2026 © The Concierge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/abcd1927/AI-coding-demo/pkg/config"
	"github.com/abcd1927/AI-coding-demo/pkg/orders"
	"github.com/abcd1927/AI-coding-demo/pkg/skills"
	"github.com/abcd1927/AI-coding-demo/pkg/tools"
)

const defaultHistoryLimit = 20

func runSkills(flags globalFlags, cfg *config.Config) error {
	a := &app{cfg: cfg, logger: slog.Default()}
	if err := a.loadSkills(); err != nil {
		return err
	}
	list := a.catalog.List()
	if flags.JSON {
		if list == nil {
			list = []skills.Skill{}
		}
		printJSON(list)
		return nil
	}
	if len(list) == 0 {
		fmt.Println("No skills found.")
		return nil
	}
	writer := newTabWriter()
	writeRow(writer, "ID", "NAME", "DESCRIPTION")
	for _, s := range list {
		writeRow(writer, s.ID, s.Name, truncateMessage(s.Description, 60))
	}
	return writer.Flush()
}

func runTools(flags globalFlags, _ *config.Config) error {
	registry := tools.NewDefaultRegistry(orders.NewRepository(), nil)
	defs := registry.List()
	if flags.JSON {
		printJSON(defs)
		return nil
	}
	writer := newTabWriter()
	writeRow(writer, "NAME", "DESCRIPTION")
	for _, def := range defs {
		writeRow(writer, def.Name, truncateMessage(def.Description, 70))
	}
	return writer.Flush()
}

func runOrders(flags globalFlags) error {
	list := orders.NewRepository().List()
	if flags.JSON {
		printJSON(list)
		return nil
	}
	writer := newTabWriter()
	writeRow(writer, "ORDER", "SUPPLIER ORDER", "GUEST", "HOTEL", "STAY", "STATUS")
	for _, o := range list {
		writeRow(writer, o.OrderID, o.SupplierOrderID, o.GuestName, o.HotelName, o.CheckIn+" - "+o.CheckOut, o.Status)
	}
	return writer.Flush()
}

// runHistory lists recorded executions, or shows one with its actions when
// an execution id is given.
func runHistory(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) error {
	limit := defaultHistoryLimit
	executionID := ""
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--limit":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for --limit")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 0 {
				return fmt.Errorf("invalid --limit %q", args[i+1])
			}
			limit = n
			i++
		default:
			if executionID != "" {
				return fmt.Errorf("unexpected argument %q", args[i])
			}
			executionID = args[i]
		}
	}

	store, err := openHistory(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	if executionID != "" {
		entry, err := store.Get(ctx, executionID)
		if err != nil {
			return err
		}
		if flags.JSON {
			printJSON(entry)
			return nil
		}
		skill := "-"
		if entry.SkillName != nil {
			skill = *entry.SkillName
		}
		fmt.Printf("Execution: %s\nSession:   %s\nStatus:    %s\nSkill:     %s\nMessage:   %s\nCreated:   %s\n\n",
			entry.ExecutionID, entry.SessionID, entry.Status, skill, entry.TriggerMessage, formatTime(entry.CreatedAt))
		writer := newTabWriter()
		writeRow(writer, "#", "TYPE", "STATUS", "TITLE", "DETAIL")
		for _, action := range entry.Actions {
			writeRow(writer, strconv.Itoa(action.Index), string(action.Kind), string(action.Status), action.Title,
				truncateMessage(formatDetail(action.Detail), 60))
		}
		return writer.Flush()
	}

	entries, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if flags.JSON {
		printJSON(entries)
		return nil
	}
	if len(entries) == 0 {
		fmt.Println("No executions recorded.")
		return nil
	}
	writer := newTabWriter()
	writeRow(writer, "EXECUTION", "CREATED", "STATUS", "SKILL", "MESSAGE")
	for _, entry := range entries {
		skill := ""
		if entry.SkillName != nil {
			skill = *entry.SkillName
		}
		writeRow(writer, entry.ExecutionID, formatTime(entry.CreatedAt), string(entry.Status), skill,
			truncateMessage(entry.TriggerMessage, 50))
	}
	return writer.Flush()
}
