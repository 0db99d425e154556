package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kerbaras/shelf/pkg/app"
	"github.com/kerbaras/shelf/pkg/services"
)

var exportCmd = &cobra.Command{
	Use:   "export [destination.zip]",
	Short: "Export the whole library to a bundle",
	Long:  "Snapshot every category, tag and asset plus their files into a single portable ZIP bundle",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dest := args[0]
		useTUI, _ := cmd.Flags().GetBool("tui")

		lib, _, err := openLibrary()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer lib.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		exporter := lib.NewExporter()
		sub := exporter.Subscribe()

		var result *services.ExportResult
		var exportErr error
		done := make(chan struct{})
		go func() {
			defer close(done)
			result, exportErr = exporter.Export(ctx, dest)
		}()

		if useTUI {
			if err := app.NewOperation("Exporting library", sub, cancel).Run(); err != nil {
				cobra.CheckErr(err)
			}
		} else {
			for e := range sub.C {
				if e.TotalUnits > 0 && e.Phase == services.PhaseArchiving {
					fmt.Printf("  %s: %d/%d %s\n", e.Phase, e.ProcessedUnits, e.TotalUnits, e.CurrentItem)
				}
			}
		}
		<-done

		if exportErr != nil {
			cobra.CheckErr(exportErr)
		}

		fmt.Printf("\n✅ Exported %d assets (%d files) to %s\n",
			result.AssetCount, result.FileCount, result.ArchivePath)
		for _, w := range result.Warnings {
			fmt.Printf("⚠️  missing file skipped: %s\n", w)
		}
	},
}

func init() {
	exportCmd.Flags().Bool("tui", false, "Render progress with the TUI")
}
