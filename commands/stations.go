package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"suumo-scraper/stations"
	"suumo-scraper/utils"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List the stations the scraper knows about.",
	Run: func(cmd *cobra.Command, args []string) {
		t := utils.NewTable()
		t.AppendHeader(table.Row{"Station", "Line", "Code"})

		total := 0
		for _, line := range stations.Lines() {
			for _, s := range stations.OnLine(line) {
				t.AppendRow(table.Row{s.Name, s.Line, s.Code})
				total++
			}
			t.AppendSeparator()
		}
		t.AppendFooter(table.Row{"Total", "", total})
		t.Render()

		fmt.Printf("\nPrefectures: %v\n", stations.Prefectures())
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
}
