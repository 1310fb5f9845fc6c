// ABOUTME: Tests for the feeder
// ABOUTME: Covers timestamps, end of stream, backpressure and cancellation
package source

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/mix"
)

type byteStream struct {
	*bytes.Reader
	format audio.Format
}

func (s byteStream) Format() audio.Format { return s.format }

type failingStream struct{ format audio.Format }

func (s failingStream) Read([]byte) (int, error) { return 0, errors.New("disk gone") }
func (s failingStream) Format() audio.Format     { return s.format }

func newStream(n int) byteStream {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	return byteStream{Reader: bytes.NewReader(data), format: audio.DefaultFormat()}
}

func TestFeederStampsChunksFromOrigin(t *testing.T) {
	format := audio.DefaultFormat()
	track := mix.NewMixTrack(mix.TrackConfig{Name: "a", OriginUs: 500000, Format: format})

	// 2.5 chunks, the tail is frame aligned
	f := New(track, newStream(4096*2+2048+2))
	require.NoError(t, f.Run(context.Background()))

	assert.Equal(t, 3, track.Len())
	assert.True(t, track.Closed())
	assert.Equal(t, 4096*2+2048, f.Fed())
	assert.Equal(t, int64(500000), track.FirstPresentationTimeUs())

	chunks := track.PopChunksInRange(0, audio.InfiniteUs, nil)
	require.Len(t, chunks, 3)
	assert.Equal(t, int64(500000), chunks[0].StartUs)
	assert.Equal(t, int64(500000+21333), chunks[1].StartUs)
	assert.Equal(t, int64(500000+42666), chunks[2].StartUs)
	assert.Equal(t, 2048, chunks[2].Len())
	assert.Equal(t, uint64(2), chunks[2].Seq)
	assert.True(t, track.Ended())
}

func TestFeederEmptyStreamClosesTrack(t *testing.T) {
	track := mix.NewMixTrack(mix.TrackConfig{Format: audio.DefaultFormat()})

	require.NoError(t, New(track, newStream(0)).Run(context.Background()))

	assert.Equal(t, 0, track.Len())
	assert.True(t, track.Ended())
}

func TestFeederWaitsWhileTrackFull(t *testing.T) {
	track := mix.NewMixTrack(mix.TrackConfig{Capacity: 2, Format: audio.DefaultFormat()})
	f := New(track, newStream(4096*5))
	f.RetryInterval = time.Millisecond

	done := make(chan error, 1)
	go func() { done <- f.Run(context.Background()) }()

	var got []audio.Chunk
	deadline := time.After(5 * time.Second)
	for !track.Ended() {
		got = track.PopChunksInRange(0, audio.InfiniteUs, got)
		select {
		case <-deadline:
			t.Fatal("feeder did not finish")
		case <-time.After(time.Millisecond):
		}
	}

	require.NoError(t, <-done)
	require.Len(t, got, 5)
	for i, c := range got {
		assert.Equal(t, uint64(i), c.Seq)
	}
	assert.Equal(t, int64(0), track.Clock().OriginUs())
}

func TestFeederStopsOnCancel(t *testing.T) {
	track := mix.NewMixTrack(mix.TrackConfig{Capacity: 1, Format: audio.DefaultFormat()})
	f := New(track, newStream(4096*3))
	f.RetryInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("feeder ignored cancellation")
	}
	assert.False(t, track.Closed())
}

func TestFeederReadError(t *testing.T) {
	track := mix.NewMixTrack(mix.TrackConfig{Name: "bad", Format: audio.DefaultFormat()})

	err := New(track, failingStream{format: audio.DefaultFormat()}).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.False(t, track.Closed())
}
