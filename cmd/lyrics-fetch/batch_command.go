package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/arunsworld/nursery"
	"github.com/spf13/cobra"

	"lyrics-backend/internal/autofetch"
	"lyrics-backend/pkg/fileutil"
	"lyrics-backend/pkg/lrc"
)

type batchResult struct {
	desc   autofetch.SongDescription
	result *autofetch.Result
	path   string
	err    error
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags fetchFlags
	var outputDir string
	var jobs int
	var skipExisting bool

	cmd := &cobra.Command{
		Use:   "batch <list-file>",
		Short: "Fetch lyrics for every song listed in a file",
		Long: `Fetch lyrics for every song listed in a file, one per line. A line is either
an audio file path, "artist - title", or tab separated
"title<TAB>artist<TAB>album<TAB>duration". Empty lines and lines starting
with # are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descs, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			if len(descs) == 0 {
				return fmt.Errorf("no songs found in %s", args[0])
			}

			cfg := ctx.config()
			opts, order, err := flags.options(cfg)
			if err != nil {
				return err
			}
			fetcher, err := ctx.getFetcher()
			if err != nil {
				return err
			}

			results, batchErr := runBatch(cmd.Context(), descs, jobs, func(ctx context.Context, desc autofetch.SongDescription) batchResult {
				r := batchResult{desc: desc, path: filepath.Join(outputDir, batchFileName(desc))}
				if skipExisting {
					if _, err := os.Stat(r.path); err == nil {
						return r
					}
				}
				r.result, r.err = fetcher.Fetch(ctx, desc, opts)
				if r.err == nil {
					r.err = fileutil.WriteFileOverwrite(r.path, []byte(lrc.Format(r.result.Lyrics, order)+"\n"), 0644)
				}
				return r
			})

			fmt.Fprintln(cmd.OutOrStdout(), renderBatchSummary(results))
			if batchErr != nil {
				return fmt.Errorf("batch interrupted: %w", batchErr)
			}

			failed := 0
			for _, r := range results {
				if r.err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d songs failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory to write .lrc files to")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Number of songs fetched concurrently")
	cmd.Flags().BoolVar(&skipExisting, "skip-existing", false, "Skip songs whose .lrc file already exists")
	addFetchFlags(cmd, &flags)

	return cmd
}

// runBatch 用 jobs 个 worker 并发处理，结果顺序与输入一致。
// 单首歌曲的失败记录在结果中，只有 ctx 被取消时才返回错误
func runBatch(ctx context.Context, descs []autofetch.SongDescription, jobs int, fetch func(context.Context, autofetch.SongDescription) batchResult) ([]batchResult, error) {
	if jobs <= 0 {
		jobs = 1
	}
	results := make([]batchResult, len(descs))
	queue := make(chan int)

	routines := make([]nursery.ConcurrentJob, 0, jobs+1)
	routines = append(routines, func(ctx context.Context, ch chan error) {
		defer close(queue)
		for i := range descs {
			select {
			case queue <- i:
			case <-ctx.Done():
				ch <- ctx.Err()
				return
			}
		}
	})
	for w := 0; w < jobs; w++ {
		routines = append(routines, func(_ context.Context, _ chan error) {
			for i := range queue {
				results[i] = fetch(ctx, descs[i])
			}
		})
	}
	err := nursery.RunConcurrentlyWithContext(ctx, routines...)
	if err == nil {
		// 队列已发完但 worker 仍可能因取消而中止
		err = ctx.Err()
	}

	for i := range results {
		if results[i].desc == (autofetch.SongDescription{}) {
			results[i] = batchResult{desc: descs[i], err: ctx.Err()}
		}
	}
	return results, err
}

func readBatchFile(path string) ([]autofetch.SongDescription, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var descs []autofetch.SongDescription
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		descs = append(descs, parseBatchLine(line))
	}
	return descs, scanner.Err()
}

func parseBatchLine(line string) autofetch.SongDescription {
	if strings.Contains(line, "\t") {
		fields := strings.Split(line, "\t")
		for len(fields) < 4 {
			fields = append(fields, "")
		}
		desc := autofetch.SongDescription{
			Title:  strings.TrimSpace(fields[0]),
			Artist: strings.TrimSpace(fields[1]),
			Album:  strings.TrimSpace(fields[2]),
		}
		if d, err := time.ParseDuration(strings.TrimSpace(fields[3])); err == nil {
			desc.Duration = d.Milliseconds()
		} else if ms, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64); err == nil {
			desc.Duration = ms
		}
		return desc
	}
	if _, err := os.Stat(line); err == nil {
		return autofetch.SongDescription{FilePath: line}
	}
	if artist, title, ok := strings.Cut(line, " - "); ok {
		return autofetch.SongDescription{Title: strings.TrimSpace(title), Artist: strings.TrimSpace(artist)}
	}
	return autofetch.SongDescription{Title: line}
}

func batchFileName(desc autofetch.SongDescription) string {
	if strings.TrimSpace(desc.Title) == "" {
		base := filepath.Base(desc.FilePath)
		return fileutil.SanitizeFilename(strings.TrimSuffix(base, filepath.Ext(base))) + ".lrc"
	}
	return fileutil.SanitizeFilename(desc.ArtistTitle()) + ".lrc"
}

func renderBatchSummary(results []batchResult) string {
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		row := []string{strconv.Itoa(i + 1), r.desc.String()}
		switch {
		case r.err != nil:
			row = append(row, "failed", "", "", r.err.Error())
		case r.result == nil:
			row = append(row, "skipped", "", "", r.path)
		default:
			row = append(row, "ok", r.result.Song.Source.String(),
				strconv.FormatFloat(r.result.Score, 'f', 1, 64),
				describeTracks(r.result.Lyrics))
		}
		rows = append(rows, row)
	}
	return renderTable(
		[]string{"#", "Song", "Status", "Source", "Score", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
