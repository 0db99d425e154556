package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kerbaras/shelf/pkg/integrations"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Render the library as an EPUB catalog",
	Long:  "Generate a browsable EPUB with one section per category listing each asset's details and thumbnail",
	Run: func(cmd *cobra.Command, args []string) {
		outputDir, _ := cmd.Flags().GetString("output")
		title, _ := cmd.Flags().GetString("title")

		lib, _, err := openLibrary()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer lib.Close()

		categories, err := lib.Repo.ListCategories()
		if err != nil {
			cobra.CheckErr(err)
		}
		assets, err := lib.Repo.ListAssets()
		if err != nil {
			cobra.CheckErr(err)
		}
		if len(assets) == 0 {
			fmt.Println("📚 Library is empty, nothing to catalog.")
			return
		}

		builder := integrations.NewCatalogBuilder(lib.Content, outputDir)
		path, err := builder.Build(title, categories, assets)
		if err != nil {
			cobra.CheckErr(err)
		}
		fmt.Printf("📖 Catalog written to %s\n", path)
	},
}

func init() {
	catalogCmd.Flags().StringP("output", "o", ".", "Directory to write the catalog into")
	catalogCmd.Flags().StringP("title", "t", "My Library", "Catalog title")
}
