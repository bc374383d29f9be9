package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/pkg/fileutil"
	"lyrics-backend/pkg/lrc"
	"lyrics-backend/pkg/music"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var desc autofetch.SongDescription
	var duration time.Duration
	var flags fetchFlags
	var output string
	var jsonOutput bool
	var showCandidates bool

	cmd := &cobra.Command{
		Use:   "fetch [audio-file]",
		Short: "Fetch lyrics for a single song",
		Long: `Fetch lyrics for a single song described by its title, artist, album,
duration and/or audio file path. With only a file path the file name is
used as the search keyword.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				desc.FilePath = args[0]
			}
			desc.Duration = duration.Milliseconds()

			cfg := ctx.config()
			opts, order, err := flags.options(cfg)
			if err != nil {
				return err
			}
			opts.ReturnSearchContext = showCandidates || jsonOutput

			fetcher, err := ctx.getFetcher()
			if err != nil {
				return err
			}
			result, err := fetcher.Fetch(cmd.Context(), desc, opts)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			if showCandidates {
				fmt.Fprintln(out, renderCandidates(result))
			}

			text := lrc.Format(result.Lyrics, order)
			if output == "" {
				fmt.Fprintln(out, text)
				return nil
			}
			if err := fileutil.WriteFileOverwrite(output, []byte(text+"\n"), 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Saved lyrics of %s (%s, score %.1f) to %s\n",
				result.Song.ArtistTitle(), result.Song.Source, result.Score, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&desc.Title, "title", "t", "", "Song title")
	cmd.Flags().StringVarP(&desc.Artist, "artist", "a", "", "Song artist")
	cmd.Flags().StringVar(&desc.Album, "album", "", "Album name")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Song duration, e.g. 4m29s")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write lyrics to this file instead of stdout")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&showCandidates, "show-candidates", false, "Print the search results the lyrics were chosen from")
	addFetchFlags(cmd, &flags)

	return cmd
}

func addFetchFlags(cmd *cobra.Command, flags *fetchFlags) {
	cmd.Flags().StringSliceVarP(&flags.sources, "source", "s", nil, "Lyrics sources in priority order (qm, kg, ne, lrclib)")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Minimum match score (0-100)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Time limit for one song")
	cmd.Flags().StringSliceVar(&flags.order, "order", nil, "Track order in the output (roma, orig, ts)")
}

// renderCandidates 列出搜索上下文中的候选，选中的歌曲标记为 *
func renderCandidates(result *autofetch.Result) string {
	if result.SearchContext == nil {
		return ""
	}
	selected := result.Song.Key()
	rows := make([][]string, 0, len(result.SearchContext.Songs))
	for i, song := range result.SearchContext.Songs {
		mark := ""
		if song.Key() == selected {
			mark = "*"
		}
		rows = append(rows, []string{
			mark,
			strconv.Itoa(i + 1),
			song.Source.String(),
			song.Title,
			song.Artist(),
			song.Album,
			formatDuration(song.Duration),
		})
	}
	return renderTable(
		[]string{"", "#", "Source", "Title", "Artist", "Album", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	s := ms / 1000
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

func describeTracks(l *music.Lyrics) string {
	if l.IsInstrumental() {
		return "instrumental"
	}
	var parts []string
	for _, key := range []music.TrackKey{music.TrackOrig, music.TrackTs, music.TrackRoma} {
		if l.Has(key) {
			parts = append(parts, string(key))
		}
	}
	if l.IsVerbatim() {
		parts = append(parts, "verbatim")
	}
	return strings.Join(parts, "+")
}
