package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"northstar/internal/app"
	"northstar/internal/bossconfig"
	"northstar/internal/infrastructure"
)

// bosscfg maintains the boss/ability registry the report commands
// resolve names through.
//
//	bosscfg -list
//	bosscfg -abilities -boss "Nexus-King Salhadaar"
//	bosscfg -add -boss "Nexus-King Salhadaar" -boss-id 3134 -ability-id 1227472 [-label Besiege]
func main() {
	list := flag.Bool("list", false, "list known bosses")
	abilities := flag.Bool("abilities", false, "list the tracked abilities of -boss")
	add := flag.Bool("add", false, "record an ability under a boss")
	boss := flag.String("boss", "", "boss display name")
	bossID := flag.Int("boss-id", 0, "encounter ID (required with -add for new bosses)")
	abilityID := flag.Int("ability-id", 0, "ability ID")
	label := flag.String("label", "", "ability display label (default: looked up from the provider)")
	flag.Parse()

	a, err := app.Bootstrap("bosscfg.log", false)
	if err != nil {
		slog.Error("Startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown(context.Background())

	registry, err := a.Registry()
	if err != nil {
		a.Logger.Error("Failed to open boss registry", "error", err)
		os.Exit(1)
	}

	switch {
	case *list:
		bosses := registry.Bosses()
		if len(bosses) == 0 {
			fmt.Println("Registry is empty. Add a boss with -add.")
			return
		}
		for _, b := range bosses {
			fmt.Printf("%-40s %d\n", b.Name, b.EncounterID)
		}

	case *abilities:
		if *boss == "" {
			fmt.Fprintln(os.Stderr, "-abilities requires -boss")
			os.Exit(2)
		}
		entries := registry.Abilities(*boss)
		if len(entries) == 0 {
			fmt.Printf("No abilities tracked for %q.\n", *boss)
			return
		}
		for _, ab := range entries {
			name := ab.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%-10d %s\n", ab.ID, name)
		}

	case *add:
		if *boss == "" || *abilityID == 0 {
			fmt.Fprintln(os.Stderr, "-add requires -boss and -ability-id")
			os.Exit(2)
		}
		encounterID := *bossID
		if encounterID == 0 {
			existing, ok := registry.BossByName(*boss)
			if !ok {
				fmt.Fprintf(os.Stderr, "boss %q is not in the registry; pass -boss-id\n", *boss)
				os.Exit(2)
			}
			encounterID = existing.EncounterID
		}

		resolvedLabel := *label
		if resolvedLabel == "" {
			ctx := infrastructure.ContextWithTraceID(context.Background())
			resolvedLabel, err = bossconfig.LookupAbilityName(ctx, a.Client, *abilityID)
			if err != nil {
				a.Logger.Error("Ability lookup failed", "error", err)
				os.Exit(1)
			}
			if resolvedLabel == "" {
				fmt.Fprintf(os.Stderr, "provider knows no ability %d; pass -label explicitly\n", *abilityID)
				os.Exit(2)
			}
		}

		if err := registry.AddAbility(*boss, encounterID, *abilityID, resolvedLabel); err != nil {
			a.Logger.Error("Failed to update registry", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Recorded %d (%s) under %s.\n", *abilityID, resolvedLabel, *boss)

	default:
		flag.Usage()
		os.Exit(2)
	}
}
