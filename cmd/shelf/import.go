package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kerbaras/shelf/pkg/app"
	"github.com/kerbaras/shelf/pkg/services"
)

var importCmd = &cobra.Command{
	Use:   "import [bundle.zip]",
	Short: "Import a bundle into the library",
	Long:  "Merge a previously exported bundle into this library, reconciling categories and tags by slug and resolving asset conflicts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bundlePath := args[0]
		useTUI, _ := cmd.Flags().GetBool("tui")
		onConflict, _ := cmd.Flags().GetString("on-conflict")
		timeout, _ := cmd.Flags().GetDuration("conflict-timeout")

		lib, cfg, err := openLibrary()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer lib.Close()

		if onConflict == "" {
			onConflict = cfg.OnConflict
		}
		resolver, err := buildResolver(onConflict, lib)
		if err != nil {
			cobra.CheckErr(err)
		}
		if timeout == 0 {
			timeout = cfg.ConflictTimeout
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		importer := lib.NewImporter(resolver, services.ImportOptions{ConflictTimeout: timeout})
		sub := importer.Subscribe()

		var result *services.ImportResult
		var importErr error
		done := make(chan struct{})
		go func() {
			defer close(done)
			result, importErr = importer.Import(ctx, bundlePath)
		}()

		if useTUI {
			if err := app.NewOperation("Importing bundle", sub, cancel).Run(); err != nil {
				cobra.CheckErr(err)
			}
		} else {
			for e := range sub.C {
				if e.Phase == services.PhaseAssets && e.CurrentItem != "" {
					fmt.Printf("  asset %d/%d: %s\n", e.ProcessedUnits+1, e.TotalUnits, e.CurrentItem)
				}
			}
		}
		<-done

		if importErr != nil {
			cobra.CheckErr(importErr)
		}

		fmt.Printf("\n✅ Import complete: %d imported, %d skipped, %d failed\n",
			result.Imported, result.Skipped, result.Failed)
		for slug, msg := range result.Errors {
			fmt.Printf("❌ %s: %s\n", slug, msg)
		}
	},
}

func init() {
	importCmd.Flags().Bool("tui", false, "Render progress with the TUI")
	importCmd.Flags().StringP("on-conflict", "c", "", "Conflict policy: ask, skip, overwrite or rename")
	importCmd.Flags().Duration("conflict-timeout", 0, "How long to wait for a conflict decision before skipping")
}

func buildResolver(policy string, lib *services.Library) (services.ConflictResolver, error) {
	switch policy {
	case "", "ask":
		return askResolver(os.Stdin, os.Stdout), nil
	case "skip":
		return services.SkipAll(), nil
	case "overwrite":
		return services.OverwriteAll(), nil
	case "rename":
		return services.AutoRename(func(slug string) (bool, error) {
			a, err := lib.Repo.GetAssetBySlug(slug)
			return a != nil, err
		}), nil
	}
	return nil, fmt.Errorf("unknown conflict policy %q", policy)
}

// askResolver prompts on the terminal for each colliding asset.
func askResolver(in io.Reader, out io.Writer) services.ConflictResolver {
	reader := bufio.NewReader(in)
	return services.ResolverFunc(func(c services.Conflict) (services.Resolution, error) {
		fmt.Fprintf(out, "\n⚠️  Asset %q (%s) already exists.\n", c.Slug, c.Title)
		fmt.Fprintf(out, "    existing: %s v%s, %d bytes\n", c.Existing.Title, c.Existing.Version, c.Existing.FileSizeBytes)
		fmt.Fprintf(out, "    incoming: %s v%s, %d bytes\n", c.Incoming.Title, c.Incoming.Version, c.Incoming.FileSizeBytes)

		for {
			fmt.Fprint(out, "  [s]kip / [o]verwrite / [r]ename: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return services.Resolution{Action: services.ActionSkip}, nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "s", "skip":
				return services.Resolution{Action: services.ActionSkip}, nil
			case "o", "overwrite":
				return services.Resolution{Action: services.ActionOverwrite}, nil
			case "r", "rename":
				fmt.Fprint(out, "  new slug: ")
				slug, err := reader.ReadString('\n')
				if err != nil {
					return services.Resolution{Action: services.ActionSkip}, nil
				}
				return services.Resolution{
					Action:  services.ActionRename,
					NewSlug: strings.TrimSpace(slug),
				}, nil
			}
		}
	})
}
