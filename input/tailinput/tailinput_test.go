package tailinput

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink gathers enqueued lines for assertions
type recordingSink struct {
	mutex sync.Mutex
	lines []string
}

func (sink *recordingSink) Enqueue(line string) {
	sink.mutex.Lock()
	sink.lines = append(sink.lines, line)
	sink.mutex.Unlock()
}

func (sink *recordingSink) Lines() []string {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return append([]string(nil), sink.lines...)
}

func TestInputReadsExistingLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, []byte("line 1\nline 2\nline 3\n"), 0644))

	sink := &recordingSink{}
	stopRequest := channels.NewSignalAwaitable()
	input, err := NewInput(logger.Root(), Config{
		Paths:         []string{path},
		FromBeginning: true,
	}, sink, promreg.NewMetricFactory("testtail_", nil, nil), stopRequest)
	require.NoError(t, err)
	input.Launch()

	assert.Eventually(t, func() bool {
		return len(sink.Lines()) == 3
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"line 1", "line 2", "line 3"}, sink.Lines())

	stopRequest.Signal()
	assert.True(t, input.Stopped().Wait(5*time.Second))
}

func TestInputFollowsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	sink := &recordingSink{}
	stopRequest := channels.NewSignalAwaitable()
	input, ierr := NewInput(logger.Root(), Config{
		Paths:         []string{path},
		FromBeginning: true,
	}, sink, promreg.NewMetricFactory("testtailfollow_", nil, nil), stopRequest)
	require.NoError(t, ierr)
	input.Launch()

	for i := 0; i < 5; i++ {
		_, werr := fmt.Fprintf(file, "appended %d\n", i)
		require.NoError(t, werr)
	}
	require.NoError(t, file.Sync())

	assert.Eventually(t, func() bool {
		return len(sink.Lines()) == 5
	}, 5*time.Second, 10*time.Millisecond)

	stopRequest.Signal()
	assert.True(t, input.Stopped().Wait(5*time.Second))
}

func TestInputSkipsExcludedFiles(t *testing.T) {
	dir := t.TempDir()
	included := filepath.Join(dir, "app.log")
	excluded := filepath.Join(dir, "noisy.log")
	require.NoError(t, os.WriteFile(included, []byte("kept\n"), 0644))
	require.NoError(t, os.WriteFile(excluded, []byte("skipped\n"), 0644))

	sink := &recordingSink{}
	stopRequest := channels.NewSignalAwaitable()
	input, err := NewInput(logger.Root(), Config{
		Paths:         []string{included, excluded, included},
		Exclude:       []string{"*noisy*"},
		FromBeginning: true,
	}, sink, promreg.NewMetricFactory("testtailexclude_", nil, nil), stopRequest)
	require.NoError(t, err)
	input.Launch()

	assert.Eventually(t, func() bool {
		return len(sink.Lines()) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"kept"}, sink.Lines())

	stopRequest.Signal()
	assert.True(t, input.Stopped().Wait(5*time.Second))
}

func TestConfigRejectsBadPattern(t *testing.T) {
	cfg := Config{
		Paths:   []string{"/var/log/app.log"},
		Exclude: []string{"[unterminated"},
	}
	_, err := cfg.Validate()
	assert.Error(t, err)

	empty := Config{}
	_, err = empty.Validate()
	assert.Error(t, err)
}
