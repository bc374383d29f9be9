package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrics-backend/pkg/music"
)

// fakeAI 把每行编号原样返回，文本加上前缀
type fakeAI struct {
	prompt string
	drop   bool
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) HandleText(ctx context.Context, msg string) (string, error) {
	f.prompt = msg
	var out []string
	for _, line := range strings.Split(msg, "\n") {
		num, text, ok := strings.Cut(line, "|")
		if !ok || len(num) != 2 {
			continue
		}
		out = append(out, fmt.Sprintf("%s|T:%s", num, text))
	}
	if f.drop {
		out = out[1:]
	}
	return "```\n" + strings.Join(out, "\n") + "\n```", nil
}

func testLyrics() *music.Lyrics {
	l := music.NewLyrics(music.SongInfo{Title: "song"})
	l.Tracks[music.TrackOrig] = &music.Track{Type: music.LineByLine, Lines: []music.LyricLine{
		{Start: 0, End: 1000, Text: "hello"},
		{Start: 1000, End: 2000, Text: ""},
		{Start: 2000, End: 3000, Text: "world"},
	}}
	return l
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt([]string{"a", "b"}, "zh")
	assert.Contains(t, prompt, "简体中文")
	assert.Contains(t, prompt, "01|a\n02|b")

	assert.Contains(t, buildPrompt([]string{"a"}, "eo"), "into eo")
}

func TestParseNumbered(t *testing.T) {
	out, err := parseNumbered("```\n01|你好\n02|世界\n```", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"你好", "世界"}, out)

	_, err = parseNumbered("01|你好", 2)
	assert.True(t, errors.Is(err, ErrLineMismatch))
}

func TestLyrics(t *testing.T) {
	t.Run("AddsTranslation", func(t *testing.T) {
		fake := &fakeAI{}
		src := testLyrics()
		out, err := Lyrics(context.Background(), NewAITranslator(fake), src, "zh")
		require.NoError(t, err)

		require.True(t, out.Has(music.TrackTs))
		ts := out.Tracks[music.TrackTs]
		assert.Equal(t, "T:hello", ts.Lines[0].Text)
		assert.Equal(t, "", ts.Lines[1].Text)
		assert.Equal(t, "T:world", ts.Lines[2].Text)
		assert.Equal(t, int64(2000), ts.Lines[2].Start)
		assert.False(t, src.Has(music.TrackTs), "原歌词不应被修改")
		assert.NotContains(t, fake.prompt, "02|\n")
	})

	t.Run("AlreadyTranslated", func(t *testing.T) {
		fake := &fakeAI{}
		src := testLyrics()
		src.Tracks[music.TrackTs] = src.Tracks[music.TrackOrig]
		out, err := Lyrics(context.Background(), NewAITranslator(fake), src, "zh")
		require.NoError(t, err)
		assert.Same(t, src, out)
		assert.Empty(t, fake.prompt)
	})

	t.Run("Instrumental", func(t *testing.T) {
		src := music.NewInstrumentalLyrics(music.SongInfo{Title: "inst"})
		out, err := Lyrics(context.Background(), NewAITranslator(&fakeAI{}), src, "zh")
		require.NoError(t, err)
		assert.Same(t, src, out)
	})

	t.Run("Mismatch", func(t *testing.T) {
		src := testLyrics()
		out, err := Lyrics(context.Background(), NewAITranslator(&fakeAI{drop: true}), src, "zh")
		assert.True(t, errors.Is(err, ErrLineMismatch))
		assert.Same(t, src, out)
	})
}
