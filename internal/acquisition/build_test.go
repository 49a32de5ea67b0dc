package acquisition

import (
	"testing"

	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSources(t *testing.T) {
	src := NewSources(SourceConfig{Fetch: sources.DefaultConfig(), EnableGeneric: true})

	require.NotNil(t, src.API)
	require.NotNil(t, src.History)
	require.NotNil(t, src.Generic)
	assert.Nil(t, src.RSS)
	assert.Equal(t, sources.SourceAPI, src.API.Name())
	assert.Equal(t, sources.SourceHistory, src.History.Name())
	assert.Equal(t, sources.SourceGeneric, src.Generic.Name())

	o := New(src, Config{})
	assert.NoError(t, o.Close())
}
