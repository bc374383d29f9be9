package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lyrics-backend/pkg/music"
)

func newSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the available lyrics sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := make(map[music.Source]int, len(music.DefaultSources))
			for i, s := range music.DefaultSources {
				defaults[s] = i + 1
			}
			var rows [][]string
			for _, s := range music.AllSources() {
				priority := "-"
				if p, ok := defaults[s]; ok {
					priority = strconv.Itoa(p)
				}
				rows = append(rows, []string{s.String(), priority})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Source", "Default priority"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
