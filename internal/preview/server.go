// ABOUTME: WebSocket preview server for the live mix
// ABOUTME: Streams timestamped PCM frames to remote listeners without blocking the mixer
package preview

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/resonate-mixer/internal/discovery"
	"github.com/Resonate-Protocol/resonate-mixer/pkg/audio"
)

const (
	// Path is the websocket endpoint
	Path = "/preview"

	// FrameHeaderSize is the big-endian start time before each PCM payload
	FrameHeaderSize = 8

	clientQueueSize = 64
	writeDeadline   = 10 * time.Second
	pingInterval    = 30 * time.Second
)

// Config holds preview server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	Format     audio.Format
}

// Message is the JSON envelope for control messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// FormatPayload describes the PCM that follows
type FormatPayload struct {
	Codec      string `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	Channels   int    `json:"channels"`
	BitDepth   int    `json:"bit_depth"`
}

// Server fans mixed PCM out to websocket listeners
type Server struct {
	config   Config
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer  *http.Server
	listener    net.Listener
	mdnsManager *discovery.Manager

	clients   map[uuid.UUID]*client
	clientsMu sync.RWMutex

	cursorMu sync.Mutex
	sentUs   int64

	dropped  uint64
	wg       sync.WaitGroup
	stopOnce sync.Once
}

type client struct {
	id       uuid.UUID
	addr     string
	conn     *websocket.Conn
	sendChan chan interface{}
	dropped  int
}

// New creates a preview server
func New(config Config) *Server {
	if config.Format.SampleRate == 0 {
		config.Format = audio.DefaultFormat()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Preview is meant for trusted local networks
				return true
			},
		},
		clients: make(map[uuid.UUID]*client),
	}
	s.mux.HandleFunc(Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the preview endpoint
func (s *Server) Handler() http.Handler { return s.mux }

// Start listens on the configured port and optionally advertises via mDNS.
// It returns once the listener is bound.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.mux}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Preview server error: %v", err)
		}
	}()
	log.Printf("Preview server listening on %s%s", ln.Addr(), Path)

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.Port(),
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}
	return nil
}

// Port returns the bound port, or the configured one before Start
func (s *Server) Port() int {
	if s.listener != nil {
		if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return tcp.Port
		}
	}
	return s.config.Port
}

// Stop disconnects clients and shuts the listener down
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		if s.mdnsManager != nil {
			s.mdnsManager.Stop()
		}
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}

		s.clientsMu.Lock()
		for _, c := range s.clients {
			c.conn.Close()
		}
		s.clientsMu.Unlock()

		s.wg.Wait()
	})
	return err
}

// ClientCount returns the number of connected listeners
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Dropped returns how many frames were skipped for slow listeners
func (s *Server) Dropped() uint64 {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return s.dropped
}

// ObservePCM sends p to every listener, stamped with its position in the
// preview stream. Listeners whose queue is full miss the frame.
func (s *Server) ObservePCM(p []byte) {
	s.cursorMu.Lock()
	startUs := s.sentUs
	s.sentUs += s.config.Format.BytesToUs(len(p))
	s.cursorMu.Unlock()

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if len(s.clients) == 0 {
		return
	}

	frame := CreateFrame(startUs, p)
	for _, c := range s.clients {
		select {
		case c.sendChan <- frame:
		default:
			c.dropped++
			s.dropped++
			if c.dropped%100 == 1 {
				log.Printf("Preview client %s is slow, dropped %d frames", c.addr, c.dropped)
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	c := &client{
		id:       uuid.New(),
		addr:     r.RemoteAddr,
		conn:     conn,
		sendChan: make(chan interface{}, clientQueueSize),
	}

	// format goes first, ahead of any frame
	f := s.config.Format
	c.sendChan <- Message{
		Type: "format",
		Payload: FormatPayload{
			Codec:      "pcm",
			SampleRate: f.SampleRate,
			Channels:   f.Channels,
			BitDepth:   f.BitDepth,
		},
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()
	log.Printf("Preview client connected: %s (ID: %s)", c.addr, c.id)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientReader(c)
	}()
}

// clientReader drains control frames until the listener goes away
func (s *Server) clientReader(c *client) {
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c.id)
		close(c.sendChan)
		s.clientsMu.Unlock()
		c.conn.Close()
		log.Printf("Preview client disconnected: %s", c.addr)
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Preview client %s error: %v", c.addr, err)
			}
			return
		}
	}
}

// clientWriter sends queued messages to the listener
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}

			switch v := msg.(type) {
			case []byte:
				c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := c.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
					log.Printf("Error writing preview frame: %v", err)
					c.conn.Close()
					return
				}
			default:
				data, err := json.Marshal(v)
				if err != nil {
					log.Printf("Error marshaling message: %v", err)
					continue
				}
				c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("Error writing text message: %v", err)
					c.conn.Close()
					return
				}
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// CreateFrame builds a binary preview frame: [start_us:8][pcm:N]
func CreateFrame(startUs int64, pcm []byte) []byte {
	frame := make([]byte, FrameHeaderSize+len(pcm))
	binary.BigEndian.PutUint64(frame, uint64(startUs))
	copy(frame[FrameHeaderSize:], pcm)
	return frame
}

// ParseFrame splits a binary preview frame
func ParseFrame(frame []byte) (int64, []byte, error) {
	if len(frame) < FrameHeaderSize {
		return 0, nil, fmt.Errorf("preview frame too short: %d bytes", len(frame))
	}
	return int64(binary.BigEndian.Uint64(frame)), frame[FrameHeaderSize:], nil
}
