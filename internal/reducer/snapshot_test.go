package reducer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletedJobsCanBeRestoredForResume(t *testing.T) {
	state := New()
	state, _ = submit(t, state, "http://a.com\nhttp://b.com")
	t1, t2 := uint32(100), uint32(50)
	state, _ = Update(state, JobDone(1, ResultSuccess, "", &t1, nil, nil, nil))
	state, _ = Update(state, JobDone(2, ResultFailed, "timeout", &t2, nil, nil, nil))

	snapshot := state.CompletedJobsSnapshot()
	require.Len(t, snapshot, 1) // only the successful job is snapshot-worthy
	assert.Equal(t, "http://a.com", snapshot[0].URL)
	assert.Equal(t, uint32(100), snapshot[0].Tokens)

	restored := New()
	restored, _ = Update(restored, RestoreCompletedJobs(snapshot))

	assert.Equal(t, 1, restored.View().JobCount)
	assert.Equal(t, uint64(100), restored.View().TotalTokens)
}

func TestRestoredJobsAreDedupedOnPaste(t *testing.T) {
	state := New()
	state, _ = submit(t, state, "http://a.com")
	t1 := uint32(10)
	state, _ = Update(state, JobDone(1, ResultSuccess, "", &t1, nil, nil, nil))

	restored := New()
	restored, _ = Update(restored, RestoreCompletedJobs(state.CompletedJobsSnapshot()))

	restored, effects := submit(t, restored, "http://a.com")
	assert.Empty(t, effects)
	assert.Equal(t, 1, restored.View().JobCount)
}

func TestRestoreIsNoopWhenJobsAlreadyPresent(t *testing.T) {
	state := New()
	state, _ = submit(t, state, "http://a.com")

	t1 := uint32(10)
	snapshot := []CompletedJobSnapshot{{URL: "http://b.com", Tokens: t1}}
	next, effects := Update(state, RestoreCompletedJobs(snapshot))

	assert.Empty(t, effects)
	assert.Equal(t, state, next)
}
