package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextDifference(t *testing.T) {
	assert.Equal(t, 1.0, TextDifference("晴天", "晴天"))
	assert.Equal(t, 1.0, TextDifference("", ""))
	assert.Equal(t, 0.0, TextDifference("abc", "xyz"))
	assert.InDelta(t, 0.5, TextDifference("晴天", "雨天"), 1e-9)
}

func TestTitleScore(t *testing.T) {
	t.Run("Identical", func(t *testing.T) {
		assert.Equal(t, 100.0, TitleScore("晴天", "晴天"))
	})

	t.Run("CaseAndWidth", func(t *testing.T) {
		assert.Equal(t, 100.0, TitleScore("Hello World", "ＨＥＬＬＯ　world"))
	})

	t.Run("VersionSuffix", func(t *testing.T) {
		score := TitleScore("晴天", "晴天 (Live)")
		assert.GreaterOrEqual(t, score, 90.0)
		assert.Less(t, score, 100.0)
	})

	t.Run("Unrelated", func(t *testing.T) {
		assert.Less(t, TitleScore("晴天", "七里香"), 30.0)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, 0.0, TitleScore("", "晴天"))
	})
}

func TestSplitArtists(t *testing.T) {
	assert.Equal(t, []string{"周杰伦", "费玉清"}, SplitArtists("周杰伦/费玉清"))
	assert.Equal(t, []string{"a", "b", "c"}, SplitArtists("A feat. B & C"))
	assert.Equal(t, []string{"五月天"}, SplitArtists(" 五月天 "))
}

func TestArtistScore(t *testing.T) {
	assert.Equal(t, 100.0, ArtistScore("周杰伦", "周杰伦"))
	assert.Equal(t, 100.0, ArtistScore("Jay Chou", "jay chou"))
	assert.Less(t, ArtistScore("周杰伦", "林俊杰"), 50.0)

	// 对方多了合唱者，分数仍然较高
	score := ArtistScore("周杰伦", "周杰伦/费玉清")
	assert.Greater(t, score, 80.0)
	assert.Less(t, score, 100.0)
}
