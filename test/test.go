// Package test contains helper functions useful for testing oscfx packages.
package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

// Wav describes generated test file. Every sample has the same value.
type Wav struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	// Value is the int value of every sample.
	Value int
}

// HalfScale is a mono 16 bit file with samples at half of full scale.
var HalfScale = Wav{
	SampleRate: 44100,
	Channels:   1,
	BitDepth:   16,
	Frames:     1000,
	Value:      1 << 14,
}

// Write generates the file in test's temporary directory and returns its
// path.
func (w Wav) Write(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	data := make([]int, w.Frames*w.Channels)
	for i := range data {
		data[i] = w.Value
	}
	e := wav.NewEncoder(f, w.SampleRate, w.BitDepth, w.Channels, 1)
	require.NoError(t, e.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: w.Channels, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: w.BitDepth,
	}))
	require.NoError(t, e.Close())
	return path
}
