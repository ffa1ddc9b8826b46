package sound

import (
	"math"
	"testing"

	"github.com/gopxl/beep"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	streams []beep.Streamer
}

func (r *recordingSink) Play(s ...beep.Streamer) {
	r.streams = append(r.streams, s...)
}

// drain streams s to completion and returns every left-channel sample
func drain(t *testing.T, s beep.Streamer) []float64 {
	t.Helper()
	var out []float64
	buf := make([][2]float64, 512)
	for i := 0; i < 1000; i++ {
		n, ok := s.Stream(buf)
		for _, smp := range buf[:n] {
			out = append(out, smp[0])
		}
		if !ok {
			return out
		}
	}
	t.Fatal("stream did not end")
	return nil
}

func TestChimes_CueLengths(t *testing.T) {
	c := NewWithSink(&recordingSink{}, 0)

	tests := []struct {
		cue  Cue
		want int
	}{
		{CueAdd, sampleRate.N(cueTones[CueAdd][0].dur)},
		{CueRemove, sampleRate.N(cueTones[CueRemove][0].dur)},
		{CueScene, sampleRate.N(cueTones[CueScene][0].dur) + sampleRate.N(cueTones[CueScene][1].dur)},
	}
	for _, tt := range tests {
		t.Run(tt.cue.String(), func(t *testing.T) {
			s, err := c.Streamer(tt.cue)
			require.NoError(t, err)
			samples := drain(t, s)
			assert.Len(t, samples, tt.want)
			for _, v := range samples {
				assert.LessOrEqual(t, math.Abs(v), 1.0)
			}
		})
	}
}

func TestChimes_ReleaseEndsSilent(t *testing.T) {
	c := NewWithSink(&recordingSink{}, 0)
	s, err := c.Streamer(CueAdd)
	require.NoError(t, err)

	samples := drain(t, s)
	n := len(samples)
	tail := int(float64(n) * releaseFraction)

	peakHead, peakEnd := 0.0, 0.0
	for _, v := range samples[:n-tail] {
		peakHead = math.Max(peakHead, math.Abs(v))
	}
	for _, v := range samples[n-5:] {
		peakEnd = math.Max(peakEnd, math.Abs(v))
	}
	assert.Greater(t, peakHead, 0.9)
	assert.Less(t, peakEnd, 0.01)
}

func TestChimes_VolumeScales(t *testing.T) {
	loud, err := NewWithSink(&recordingSink{}, 0).Streamer(CueRemove)
	require.NoError(t, err)
	quiet, err := NewWithSink(&recordingSink{}, -1).Streamer(CueRemove)
	require.NoError(t, err)

	a, b := drain(t, loud), drain(t, quiet)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.InDelta(t, a[i]/2, b[i], 1e-9)
	}
}

func TestChimes_PlayRoutesToSink(t *testing.T) {
	sink := &recordingSink{}
	c := NewWithSink(sink, 0)
	require.True(t, c.Enabled())
	require.NoError(t, c.Init())

	c.Play(CueAdd)
	c.Play(CueScene)
	assert.Len(t, sink.streams, 2)

	c.Close()
	assert.False(t, c.Enabled())
	c.Play(CueAdd)
	assert.Len(t, sink.streams, 2)
}

func TestChimes_SilentWithoutSink(t *testing.T) {
	var nilChimes *Chimes
	assert.NotPanics(t, func() {
		nilChimes.Play(CueAdd)
		nilChimes.Close()
	})
	assert.False(t, nilChimes.Enabled())

	c := New(0, zerolog.Nop())
	assert.False(t, c.Enabled())
	assert.NotPanics(t, func() { c.Play(CueRemove) })
}

func TestChimes_UnknownCue(t *testing.T) {
	_, err := NewWithSink(&recordingSink{}, 0).Streamer(Cue(42))
	assert.Error(t, err)
	assert.Equal(t, "unknown", Cue(42).String())
}
