package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/asciigym/internal/storage"
)

func TestPrintScores(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	defer store.Close()

	for _, score := range []float64{1.5, 2.5, 0.5} {
		_, err := store.SaveScore("jump", "random", score)
		require.NoError(t, err)
	}

	var out bytes.Buffer
	require.NoError(t, printScores(&out, store, "jump", "Jump"))
	assert.Contains(t, out.String(), "Episode Rewards - Jump")
	assert.Contains(t, out.String(), "Best: 2.50")
	assert.Contains(t, out.String(), "Episodes: 3")

	require.NoError(t, store.ClearScores("jump"))
	out.Reset()
	require.NoError(t, printScores(&out, store, "jump", "Jump"))
	assert.Contains(t, out.String(), "No episodes recorded yet.")
}
