// ABOUTME: WebSocket client for a mix preview server
// ABOUTME: Reads the format announcement then plays timestamped PCM frames
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio/output"
)

// ErrNoFormat is returned when the server's first message is not a format
var ErrNoFormat = errors.New("preview: expected format message")

// Listener receives a preview stream and writes it to an output
type Listener struct {
	url    string
	out    output.Output
	format audio.Format

	frames   int
	lastUs   int64
	received int64
}

// NewListener creates a listener for url that plays into out
func NewListener(url string, out output.Output) *Listener {
	return &Listener{url: url, out: out}
}

// Run connects, opens the output with the announced format and plays
// frames until ctx is done or the server goes away. A server-side close
// returns nil.
func (l *Listener) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	format, err := readFormat(conn)
	if err != nil {
		return err
	}
	if err := l.out.Open(format); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	l.format = format
	log.Printf("Listening to %s (%s)", l.url, format)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		startUs, pcm, err := ParseFrame(data)
		if err != nil {
			log.Printf("Skipping bad preview frame: %v", err)
			continue
		}
		if l.frames > 0 && startUs != l.lastUs {
			log.Printf("Preview gap: expected %d, got %d", l.lastUs, startUs)
		}
		l.lastUs = startUs + format.BytesToUs(len(pcm))
		l.frames++

		if err := l.write(pcm); err != nil {
			return err
		}
	}
}

// write pushes pcm through out in BufferSize pieces
func (l *Listener) write(pcm []byte) error {
	size := max(l.format.AlignBytes(l.out.BufferSize()), l.format.FrameSize())
	for len(pcm) > 0 {
		n, err := l.out.Write(pcm[:min(len(pcm), size)])
		if err != nil {
			return fmt.Errorf("output write failed: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("output accepted no data")
		}
		l.received += int64(n)
		pcm = pcm[n:]
	}
	return nil
}

// Format returns the format announced by the server
func (l *Listener) Format() audio.Format { return l.format }

// Frames returns the number of PCM frames received
func (l *Listener) Frames() int { return l.frames }

// Received returns the number of PCM bytes written to the output
func (l *Listener) Received() int64 { return l.received }

func readFormat(conn *websocket.Conn) (audio.Format, error) {
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		return audio.Format{}, fmt.Errorf("read failed: %w", err)
	}
	if msgType != websocket.TextMessage {
		return audio.Format{}, ErrNoFormat
	}

	var msg struct {
		Type    string        `json:"type"`
		Payload FormatPayload `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return audio.Format{}, fmt.Errorf("bad format message: %w", err)
	}
	if msg.Type != "format" {
		return audio.Format{}, ErrNoFormat
	}

	format := audio.Format{
		Codec:      msg.Payload.Codec,
		SampleRate: msg.Payload.SampleRate,
		Channels:   msg.Payload.Channels,
		BitDepth:   msg.Payload.BitDepth,
	}
	if err := format.Validate(); err != nil {
		return audio.Format{}, err
	}
	return format, nil
}
