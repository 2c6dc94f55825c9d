package reducer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewModelDefaultsTokenLimit(t *testing.T) {
	state := New()
	view := state.View()
	assert.Equal(t, TokenLimit, view.TokenLimit)
	assert.Equal(t, uint64(200_000), view.TokenLimit)
}

func TestNavHeavySignal(t *testing.T) {
	heavy := PreviewQuality{HeadingCount: 0, LinkDensity: 0.45}
	assert.True(t, heavy.NavHeavy())

	article := PreviewQuality{HeadingCount: 3, LinkDensity: 0.45}
	assert.True(t, article.NavHeavy())

	sparse := PreviewQuality{HeadingCount: 0, LinkDensity: 0.1}
	assert.False(t, sparse.NavHeavy())
}

func TestConsumeDirtyReadsAndClears(t *testing.T) {
	state := New()
	state, _ = Update(state, InputChanged("http://a.com"))
	assert.True(t, state.Dirty)

	state, was := state.ConsumeDirty()
	assert.True(t, was)
	assert.False(t, state.Dirty)
}
