// ABOUTME: Audio output tests
// ABOUTME: Covers volume scaling, file outputs, tee fan-out and null pacing
package output

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/encode"
)

func TestOutputsImplementInterface(t *testing.T) {
	var _ Output = (*Oto)(nil)
	var _ Output = (*WAV)(nil)
	var _ Output = (*OpusStream)(nil)
	var _ Output = (*Tee)(nil)
	var _ Output = (*Null)(nil)
	var _ Output = (*Raw)(nil)
}

func pcmBytes(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		audio.PutInt16(b, i, s)
	}
	return b
}

func TestVolumeMultiplier(t *testing.T) {
	tests := []struct {
		volume   int
		muted    bool
		expected float64
	}{
		{100, false, 1.0},
		{50, false, 0.5},
		{0, false, 0.0},
		{100, true, 0.0},
		{75, false, 0.75},
	}

	for _, tt := range tests {
		result := getVolumeMultiplier(tt.volume, tt.muted)
		if result != tt.expected {
			t.Errorf("volume=%d muted=%v: expected %f, got %f",
				tt.volume, tt.muted, tt.expected, result)
		}
	}
}

func TestApplyVolume(t *testing.T) {
	src := pcmBytes(1000, -1000, 32767, -32768)
	dst := make([]byte, len(src))

	applyVolume(dst, src, 50, false)

	want := []int16{500, -500, 16384, -16384}
	for i, w := range want {
		if got := audio.Int16At(dst, i); got != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, got)
		}
	}

	// source untouched
	if audio.Int16At(src, 0) != 1000 {
		t.Error("applyVolume modified its source")
	}
}

func TestApplyVolumeMuted(t *testing.T) {
	src := pcmBytes(1000, -1000)
	dst := make([]byte, len(src))

	applyVolume(dst, src, 100, true)

	for i := 0; i < 2; i++ {
		if got := audio.Int16At(dst, i); got != 0 {
			t.Errorf("sample %d: expected silence, got %d", i, got)
		}
	}
}

func TestApplyVolumeFullCopies(t *testing.T) {
	src := pcmBytes(123, -456)
	dst := make([]byte, len(src))

	applyVolume(dst, src, 100, false)

	if !bytes.Equal(dst, src) {
		t.Errorf("expected unchanged copy, got %v", dst)
	}
}

func TestOtoVolumeClamps(t *testing.T) {
	out := NewOto(0, 0)
	if out.BufferSize() != DefaultBufferSize {
		t.Errorf("expected default buffer size, got %d", out.BufferSize())
	}

	out.SetVolume(150)
	if out.Volume() != 100 {
		t.Errorf("expected volume 100, got %d", out.Volume())
	}
	out.SetVolume(-5)
	if out.Volume() != 0 {
		t.Errorf("expected volume 0, got %d", out.Volume())
	}

	out.SetMuted(true)
	if !out.IsMuted() {
		t.Error("expected muted")
	}
}

func TestOtoWriteBeforeOpen(t *testing.T) {
	out := NewOto(4096, 0)
	if _, err := out.Write(pcmBytes(1, 2)); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mix.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	out := NewWAV(f, 4096)
	format := audio.DefaultFormat()
	if err := out.Open(format); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	pcm := pcmBytes(100, -100, 2000, -2000, 32767, -32768)
	n, err := out.Write(pcm)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != len(pcm) {
		t.Errorf("expected %d bytes accepted, got %d", len(pcm), n)
	}
	if out.Written() != int64(len(pcm)) {
		t.Errorf("expected %d bytes written, got %d", len(pcm), out.Written())
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	stream, err := decode.Open(path, format)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer stream.Close()

	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(got, pcm) {
		t.Errorf("expected %v, got %v", pcm, got)
	}
}

func TestWAVRejects24Bit(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "mix.wav"))
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	out := NewWAV(f, 0)
	format := audio.DefaultFormat()
	format.BitDepth = 24
	if err := out.Open(format); !errors.Is(err, audio.ErrUnsupportedBitDepth) {
		t.Errorf("expected ErrUnsupportedBitDepth, got %v", err)
	}
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (c *closeBuffer) Close() error {
	c.closed = true
	return nil
}

func TestRawWrites24Bit(t *testing.T) {
	buf := &closeBuffer{}
	out := NewRaw(buf, 24, 0)
	if _, err := out.Write(pcmBytes(1)); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
	if err := out.Open(audio.DefaultFormat()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	// trailing odd byte is not a whole sample
	n, err := out.Write(append(pcmBytes(1000, -1), 0x7f))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 bytes accepted, got %d", n)
	}

	want := []byte{0x00, 0xE8, 0x03, 0x00, 0xFF, 0xFF}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("expected %v, got %v", want, buf.Bytes())
	}
	if out.Written() != 6 {
		t.Errorf("expected 6 written, got %d", out.Written())
	}

	if err := out.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !buf.closed {
		t.Error("expected writer to be closed")
	}
}

func TestRawRejectsBitDepth(t *testing.T) {
	out := NewRaw(&bytes.Buffer{}, 8, 0)
	if err := out.Open(audio.DefaultFormat()); err == nil {
		t.Fatal("expected error for 8-bit raw output")
	}
}

func TestOpusStreamPacketsAndPadding(t *testing.T) {
	var buf bytes.Buffer
	out := NewOpusStream(&buf, 0, 4096)
	format := audio.DefaultFormat()
	if err := out.Open(format); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// one and a half 20ms stereo frames
	frameBytes := 960 * 2 * 2
	pcm := make([]byte, frameBytes+frameBytes/2)
	n, err := out.Write(pcm)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != len(pcm) {
		t.Errorf("expected %d bytes accepted, got %d", len(pcm), n)
	}
	if out.Packets() != 1 {
		t.Errorf("expected 1 packet before close, got %d", out.Packets())
	}

	if err := out.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if out.Packets() != 2 {
		t.Errorf("expected padded final packet, got %d packets", out.Packets())
	}

	pr, err := encode.NewPacketReader(&buf, "opus")
	if err != nil {
		t.Fatalf("bad header: %v", err)
	}
	if pr.Format().SampleRate != 48000 || pr.Format().Channels != 2 {
		t.Errorf("unexpected header format %v", pr.Format())
	}
	for i := 0; i < 2; i++ {
		if _, err := pr.ReadPacket(); err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
	}
	if _, err := pr.ReadPacket(); err != io.EOF {
		t.Errorf("expected EOF after 2 packets, got %v", err)
	}
}

type recordingObserver struct {
	seen [][]byte
}

func (r *recordingObserver) ObservePCM(p []byte) {
	r.seen = append(r.seen, append([]byte(nil), p...))
}

type partialOutput struct {
	accept int
}

func (p *partialOutput) Open(audio.Format) error { return nil }
func (p *partialOutput) Write(b []byte) (int, error) {
	return min(len(b), p.accept), nil
}
func (p *partialOutput) BufferSize() int { return 1024 }
func (p *partialOutput) Close() error    { return nil }

func TestTeeReportsAcceptedBytes(t *testing.T) {
	obs := &recordingObserver{}
	tee := NewTee(&partialOutput{accept: 4}, obs)

	n, err := tee.Write(pcmBytes(1, 2, 3, 4))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 bytes, got %d", n)
	}
	if len(obs.seen) != 1 || len(obs.seen[0]) != 4 {
		t.Fatalf("expected one 4 byte observation, got %v", obs.seen)
	}
	if tee.BufferSize() != 1024 {
		t.Errorf("expected primary buffer size, got %d", tee.BufferSize())
	}
}

func TestTeeSkipsObserversOnZeroWrite(t *testing.T) {
	obs := &recordingObserver{}
	tee := NewTee(&partialOutput{accept: 0})
	tee.AddObserver(obs)

	if _, err := tee.Write(pcmBytes(1, 2)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if len(obs.seen) != 0 {
		t.Errorf("expected no observations, got %d", len(obs.seen))
	}
}

func TestNullPacesWrites(t *testing.T) {
	out := NewNull(0)
	start := time.Unix(0, 0)
	var slept time.Duration
	out.now = func() time.Time { return start }
	out.sleep = func(d time.Duration) { slept += d }

	if _, err := out.Write(pcmBytes(1)); !errors.Is(err, ErrNotOpen) {
		t.Errorf("expected ErrNotOpen, got %v", err)
	}

	if err := out.Open(audio.DefaultFormat()); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	// 4800 frames of 48kHz stereo 16-bit is 100ms
	n, err := out.Write(make([]byte, 4800*4+2))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if n != 4800*4 {
		t.Errorf("expected frame aligned write of %d, got %d", 4800*4, n)
	}
	if slept != 100*time.Millisecond {
		t.Errorf("expected 100ms sleep, got %v", slept)
	}
}
