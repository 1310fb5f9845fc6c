// ABOUTME: Opus packet stream output
// ABOUTME: Re-encodes mixed PCM in 20ms Opus frames and frames the packets
package output

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/encode"
)

// OpusStream encodes PCM to length-prefixed Opus packets on w
type OpusStream struct {
	w          io.Writer
	bitrate    int
	bufferSize int
	enc        *encode.OpusEncoder
	packets    *encode.PacketWriter
	frame      []int16
	filled     int
	count      int
}

// NewOpusStream creates an Opus output over w. bitrate 0 keeps the
// encoder default. Close closes w if it is an io.Closer.
func NewOpusStream(w io.Writer, bitrate, bufferSize int) *OpusStream {
	return &OpusStream{
		w:          w,
		bitrate:    bitrate,
		bufferSize: bufferSizeOrDefault(bufferSize),
	}
}

// Open creates the encoder and writes the stream header
func (o *OpusStream) Open(format audio.Format) error {
	format.Codec = "opus"
	enc, err := encode.NewOpus(format)
	if err != nil {
		return err
	}
	if o.bitrate > 0 {
		if err := enc.SetBitrate(o.bitrate); err != nil {
			return err
		}
	}

	packets, err := encode.NewPacketWriter(o.w, format)
	if err != nil {
		return err
	}

	o.enc = enc
	o.packets = packets
	o.frame = make([]int16, enc.FrameSamples())
	return nil
}

// Write buffers samples and emits a packet per complete frame
func (o *OpusStream) Write(p []byte) (int, error) {
	if o.enc == nil {
		return 0, ErrNotOpen
	}

	samples := len(p) / 2
	for i := 0; i < samples; i++ {
		o.frame[o.filled] = audio.Int16At(p, i)
		o.filled++
		if o.filled == len(o.frame) {
			if err := o.flush(); err != nil {
				return i * 2, err
			}
		}
	}
	return samples * 2, nil
}

func (o *OpusStream) flush() error {
	packet, err := o.enc.Encode(o.frame)
	if err != nil {
		return err
	}
	if err := o.packets.WritePacket(packet); err != nil {
		return err
	}
	o.filled = 0
	o.count++
	return nil
}

// BufferSize returns the largest write taken at once
func (o *OpusStream) BufferSize() int { return o.bufferSize }

// Packets returns the number of packets written
func (o *OpusStream) Packets() int { return o.count }

// Close pads the last frame with silence, flushes it and closes w
func (o *OpusStream) Close() error {
	if o.enc != nil && o.filled > 0 {
		clear(o.frame[o.filled:])
		if err := o.flush(); err != nil {
			return fmt.Errorf("failed to flush last opus frame: %w", err)
		}
	}
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	return closeWriter(o.w)
}
