package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/shelf/pkg/services"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [destination.zip]",
	Short: "Project the size of an export",
	Long:  "Estimate how large an export bundle would be and whether the destination volume can hold it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dest := args[0]

		lib, _, err := openLibrary()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer lib.Close()

		estimator := services.NewEstimator()
		projected, err := estimator.Estimate(lib.Repo)
		if err != nil {
			cobra.CheckErr(err)
		}

		count, err := lib.Repo.CountAssets()
		if err != nil {
			cobra.CheckErr(err)
		}

		fmt.Printf("📦 %d assets, projected bundle size %s\n", count, formatBytes(projected))
		if estimator.HasSpace(dest, projected) {
			fmt.Printf("✅ %s has room for the bundle\n", dest)
		} else {
			fmt.Printf("❌ not enough free space near %s\n", dest)
		}
	},
}
