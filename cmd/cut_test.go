package cmd

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/eafkit/pkg/config"
	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

type cutCall struct {
	source, dest string
	from, to     float64
}

type fakeCutter struct {
	mu    sync.Mutex
	calls []cutCall
	err   error
}

func (f *fakeCutter) Cut(_ context.Context, source, dest string, from, to *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cutCall{source, dest, *from, *to})
	return f.err
}

func useCutter(t *testing.T, c eaf.Cutter) {
	t.Helper()
	orig := newCutter
	newCutter = func(config.MediaConfig) (eaf.Cutter, error) { return c, nil }
	t.Cleanup(func() { newCutter = orig })
}

func TestCut(t *testing.T) {
	dir := t.TempDir()
	mediaFile := filepath.Join(dir, "session.wav")
	require.NoError(t, os.WriteFile(mediaFile, []byte("RIFF"), 0o644))
	outdir := filepath.Join(dir, "clips")

	cutter := &fakeCutter{}
	useCutter(t, cutter)

	out, err := execute(t, "cut", testEAF, "Person1 (Utterance)", outdir, "--media", mediaFile, "--jobs", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Cut 8 annotations")
	assert.DirExists(t, outdir)

	require.Len(t, cutter.calls, 8)
	sort.Slice(cutter.calls, func(i, j int) bool { return cutter.calls[i].from < cutter.calls[j].from })
	first := cutter.calls[0]
	assert.Equal(t, mediaFile, first.source)
	assert.Equal(t, filepath.Join(outdir, "a1.wav"), first.dest)
	assert.Equal(t, 1.04, first.from)
	assert.Equal(t, 2.33, first.to)
}

func TestCutErrors(t *testing.T) {
	dir := t.TempDir()
	mediaFile := filepath.Join(dir, "session.wav")
	require.NoError(t, os.WriteFile(mediaFile, nil, 0o644))

	t.Run("unknown tier", func(t *testing.T) {
		useCutter(t, &fakeCutter{})
		_, err := execute(t, "cut", testEAF, "ghost", dir, "--media", mediaFile)
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	})

	t.Run("missing media", func(t *testing.T) {
		cutter := &fakeCutter{}
		useCutter(t, cutter)
		_, err := execute(t, "cut", testEAF, "marker", dir, "--media", filepath.Join(dir, "nope.wav"))
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
		assert.Empty(t, cutter.calls)
	})

	t.Run("cutter failure", func(t *testing.T) {
		useCutter(t, &fakeCutter{err: assert.AnError})
		_, err := execute(t, "cut", testEAF, "marker", dir, "--media", mediaFile, "--ext", "mp3")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeExternalTool))
	})
}
