package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/lawflow-backend/internal/app"
	"github.com/yungbote/lawflow-backend/internal/platform/dbctx"
	"github.com/yungbote/lawflow-backend/internal/services"
)

var defaultCatalog = []struct {
	module string
	topics []string
}{
	{"Land Law", []string{"Registration", "Co-ownership", "Leases", "Easements", "Mortgages"}},
	{"Tort Law", []string{"Negligence", "Nuisance", "Defamation", "Trespass", "Vicarious Liability"}},
	{"Employment Law", []string{"Contracts of Employment", "Unfair Dismissal", "Discrimination", "Redundancy"}},
	{"Legal Practice", []string{"Professional Conduct", "Solicitors' Accounts", "Money Laundering", "Client Care"}},
}

func main() {
	var dryRun bool
	var databaseID string
	flag.BoolVar(&dryRun, "dry-run", false, "print planned changes without writing")
	flag.StringVar(&databaseID, "database-id", "", "document database id to set on modules that have none")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	catalog := application.Services.Catalog
	dbc := dbctx.With(ctx)
	databaseID = strings.TrimSpace(databaseID)

	createdModules, createdTopics, backfilled := 0, 0, 0
	for _, entry := range defaultCatalog {
		m, err := application.Repos.Module.GetByName(dbc, entry.module)
		if err != nil {
			fmt.Printf("load module %q: %v\n", entry.module, err)
			os.Exit(1)
		}
		if m == nil {
			fmt.Printf("+ module %s\n", entry.module)
			createdModules++
			if dryRun {
				for _, t := range entry.topics {
					fmt.Printf("  + topic %s\n", t)
				}
				createdTopics += len(entry.topics)
				continue
			}
			name := entry.module
			m, err = catalog.CreateModule(ctx, services.ModuleInput{Name: &name})
			if err != nil {
				fmt.Printf("create module %q: %v\n", entry.module, err)
				os.Exit(1)
			}
		}

		existing, err := catalog.ListTopics(ctx, m.ID)
		if err != nil {
			fmt.Printf("list topics for %q: %v\n", entry.module, err)
			os.Exit(1)
		}
		have := make(map[string]bool, len(existing))
		for _, t := range existing {
			have[strings.ToLower(t.Name)] = true
		}
		for _, t := range entry.topics {
			if have[strings.ToLower(t)] {
				continue
			}
			fmt.Printf("  + topic %s / %s\n", entry.module, t)
			createdTopics++
			if dryRun {
				continue
			}
			if _, err := catalog.CreateTopic(ctx, m.ID, t); err != nil {
				fmt.Printf("create topic %q: %v\n", t, err)
				os.Exit(1)
			}
		}
	}

	if databaseID != "" {
		modules, err := catalog.ListModules(ctx)
		if err != nil {
			fmt.Printf("list modules: %v\n", err)
			os.Exit(1)
		}
		for _, m := range modules {
			if m.DocumentDatabaseID != nil && *m.DocumentDatabaseID != "" {
				continue
			}
			fmt.Printf("~ module %s document_database_id=%s\n", m.Name, databaseID)
			backfilled++
			if dryRun {
				continue
			}
			id := databaseID
			if _, err := catalog.UpdateModule(ctx, m.ID, services.ModuleInput{DocumentDatabaseID: &id}); err != nil {
				fmt.Printf("update module %q: %v\n", m.Name, err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("done: modules=%d topics=%d backfilled=%d dry_run=%v\n", createdModules, createdTopics, backfilled, dryRun)
}
