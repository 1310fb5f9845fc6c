// ABOUTME: Length-prefixed packet framing for encoded streams
// ABOUTME: A short header carries the format, then each packet is uint16 length + payload
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

// PacketMagic starts every packet stream
const PacketMagic = "RMPK"

const packetHeaderSize = 4 + 4 + 2

var (
	ErrBadPacketHeader = errors.New("not a packet stream")
	ErrPacketTooLarge  = errors.New("packet exceeds 65535 bytes")
)

// PacketWriter frames encoded packets onto w
type PacketWriter struct {
	w   io.Writer
	buf []byte
}

// NewPacketWriter writes the stream header for format and returns a writer
func NewPacketWriter(w io.Writer, format audio.Format) (*PacketWriter, error) {
	header := make([]byte, packetHeaderSize)
	copy(header, PacketMagic)
	binary.BigEndian.PutUint32(header[4:], uint32(format.SampleRate))
	binary.BigEndian.PutUint16(header[8:], uint16(format.Channels))
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write packet header: %w", err)
	}
	return &PacketWriter{w: w}, nil
}

// WritePacket writes one length-prefixed packet
func (pw *PacketWriter) WritePacket(p []byte) error {
	if len(p) > 0xffff {
		return ErrPacketTooLarge
	}
	pw.buf = binary.BigEndian.AppendUint16(pw.buf[:0], uint16(len(p)))
	pw.buf = append(pw.buf, p...)
	if _, err := pw.w.Write(pw.buf); err != nil {
		return fmt.Errorf("failed to write packet: %w", err)
	}
	return nil
}

// PacketReader reads packets framed by PacketWriter
type PacketReader struct {
	r      io.Reader
	format audio.Format
	buf    []byte
}

// NewPacketReader consumes the stream header
func NewPacketReader(r io.Reader, codec string) (*PacketReader, error) {
	header := make([]byte, packetHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("failed to read packet header: %w", err)
	}
	if string(header[:4]) != PacketMagic {
		return nil, ErrBadPacketHeader
	}

	return &PacketReader{
		r: r,
		format: audio.Format{
			Codec:      codec,
			SampleRate: int(binary.BigEndian.Uint32(header[4:])),
			Channels:   int(binary.BigEndian.Uint16(header[8:])),
			BitDepth:   16,
		},
		buf: make([]byte, 0xffff),
	}, nil
}

// Format returns the format recorded in the header
func (pr *PacketReader) Format() audio.Format { return pr.format }

// ReadPacket returns the next packet, valid until the next call.
// A clean end of stream yields io.EOF.
func (pr *PacketReader) ReadPacket() ([]byte, error) {
	var size [2]byte
	if _, err := io.ReadFull(pr.r, size[:]); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(size[:]))
	if _, err := io.ReadFull(pr.r, pr.buf[:n]); err != nil {
		return nil, fmt.Errorf("truncated packet: %w", err)
	}
	return pr.buf[:n], nil
}
