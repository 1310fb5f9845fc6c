// ABOUTME: Tests for the preview listener
// ABOUTME: Plays frames from a test server into a capture output
package preview

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

type captureOutput struct {
	mu     sync.Mutex
	format audio.Format
	data   bytes.Buffer
}

func (c *captureOutput) Open(f audio.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
	return nil
}

func (c *captureOutput) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Write(p)
}

func (c *captureOutput) BufferSize() int { return 1000 }
func (c *captureOutput) Close() error    { return nil }

func (c *captureOutput) snapshot() (audio.Format, []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format, bytes.Clone(c.data.Bytes())
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + Path
}

func TestListenerPlaysFrames(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	out := &captureOutput{}
	l := NewListener(wsURL(ts), out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	pcm := bytes.Repeat([]byte{1, 2, 3, 4}, 1024)
	s.ObservePCM(pcm)
	s.ObservePCM(pcm)

	require.Eventually(t, func() bool {
		_, got := out.snapshot()
		return len(got) == 2*len(pcm)
	}, 5*time.Second, 10*time.Millisecond)

	format, got := out.snapshot()
	assert.Equal(t, audio.DefaultFormat(), format)
	assert.Equal(t, append(bytes.Clone(pcm), pcm...), got)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.Equal(t, 2, l.Frames())
	assert.Equal(t, int64(2*len(pcm)), l.Received())
}

func TestListenerRejectsMissingFormat(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.BinaryMessage, CreateFrame(0, []byte{0, 0, 0, 0}))
		conn.ReadMessage()
	}))
	defer ts.Close()

	l := NewListener(wsURL(ts), &captureOutput{})
	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoFormat)
}

func TestListenerDialError(t *testing.T) {
	l := NewListener("ws://127.0.0.1:1/preview", &captureOutput{})
	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial failed")
}
