package providers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyrics-backend/pkg/httputil"
	"lyrics-backend/pkg/music"
)

func TestCreateProvider(t *testing.T) {
	for _, source := range music.AllSources() {
		api, err := CreateProvider(source, httputil.DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, source, api.Source())
		assert.NotEmpty(t, api.GetProviderName())
	}

	_, err := CreateProvider(music.Source("spotify"), httputil.DefaultOptions())
	assert.True(t, errors.Is(err, music.ErrUnknownSource))
}

func TestCreateManager(t *testing.T) {
	m := CreateManager(nil, httputil.DefaultOptions())
	assert.Equal(t, music.DefaultSources, m.Sources())

	m = CreateManager([]music.Source{music.SourceLRCLib, "bogus"}, httputil.DefaultOptions())
	assert.Equal(t, []music.Source{music.SourceLRCLib}, m.Sources())
}
