package cmd

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all assets in your library",
	Long:  "Display every asset in the library in a formatted table",
	Run: func(cmd *cobra.Command, args []string) {
		lib, _, err := openLibrary()
		if err != nil {
			cobra.CheckErr(err)
		}
		defer lib.Close()

		assets, err := lib.Repo.ListAssets()
		if err != nil {
			cobra.CheckErr(err)
		}

		if len(assets) == 0 {
			fmt.Println("📚 Library is empty. Use 'shelf import' to restore a bundle.")
			return
		}

		categories, err := lib.Repo.ListCategories()
		if err != nil {
			cobra.CheckErr(err)
		}
		categoryNames := make(map[string]string, len(categories))
		for _, c := range categories {
			categoryNames[c.ID] = c.Name
		}

		columns := []table.Column{
			{Title: "Title", Width: 36},
			{Title: "Category", Width: 18},
			{Title: "Version", Width: 8},
			{Title: "Size", Width: 10},
			{Title: "Tags", Width: 24},
		}

		rows := []table.Row{}
		for _, a := range assets {
			rows = append(rows, table.Row{
				truncateString(a.Title, 34),
				truncateString(categoryNames[a.CategoryID], 16),
				a.Version,
				formatBytes(a.FileSizeBytes),
				truncateString(joinTags(a.Tags), 22),
			})
		}

		t := table.New(
			table.WithColumns(columns),
			table.WithRows(rows),
			table.WithFocused(false),
			table.WithHeight(len(rows)),
		)

		s := table.DefaultStyles()
		s.Header = s.Header.
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true).
			Bold(true)
		s.Selected = s.Selected.
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Bold(false)
		t.SetStyles(s)

		fmt.Printf("\n📚 Library (%d assets)\n\n", len(assets))
		fmt.Println(t.View())
	},
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += ", "
		}
		out += t
	}
	return out
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
