// Package preview streams rendered capture frames to websocket viewers as
// JPEG images.
package preview

import (
	"errors"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/breeze-rmm/monitorcapture/internal/logging"
)

var log = logging.L("preview")

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 4

	defaultQuality = 70
)

// Frame outcomes passed to Recorder.PreviewFrame.
const (
	OutcomeSent      = "sent"
	OutcomeUnchanged = "unchanged"
	OutcomeDropped   = "dropped"
)

// ErrClosed is returned by ServeHTTP after Close.
var ErrClosed = errors.New("preview hub closed")

// Recorder receives preview activity. *metrics.Metrics implements it.
type Recorder interface {
	SetPreviewClients(n int)
	PreviewFrame(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) SetPreviewClients(int) {}
func (nopRecorder) PreviewFrame(string)   {}

// Options configures a Hub.
type Options struct {
	// Quality is the JPEG quality, 1..100.
	Quality int
	// MaxFPS caps how often frames are encoded. Zero means unlimited.
	MaxFPS   int
	Recorder Recorder
	// CheckOrigin overrides the upgrader origin check. Nil allows only
	// same-host requests.
	CheckOrigin func(r *http.Request) bool
}

// Hub fans encoded frames out to every connected viewer.
type Hub struct {
	upgrader websocket.Upgrader
	quality  int
	interval time.Duration
	recorder Recorder
	differ   frameDiffer

	mu       sync.Mutex
	clients  map[*client]struct{}
	lastSent time.Time
	closed   bool
}

// client is one viewer. Frames are dropped when its buffer is full.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// NewHub creates a hub with no viewers.
func NewHub(opts Options) *Hub {
	h := &Hub{
		quality:  opts.Quality,
		recorder: opts.Recorder,
		clients:  make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
	}
	if h.quality <= 0 || h.quality > 100 {
		h.quality = defaultQuality
	}
	if opts.MaxFPS > 0 {
		h.interval = time.Second / time.Duration(opts.MaxFPS)
	}
	if h.recorder == nil {
		h.recorder = nopRecorder{}
	}
	return h
}

// ServeHTTP upgrades the request and streams frames until the viewer leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, ErrClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	n, ok := h.add(c)
	if !ok {
		conn.Close()
		return
	}
	log.Info("preview viewer connected", "remote", r.RemoteAddr, "viewers", n)

	go h.writePump(c)
	h.readPump(c)

	n = h.remove(c)
	log.Info("preview viewer disconnected", "remote", r.RemoteAddr, "viewers", n)
}

func (h *Hub) add(c *client) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.recorder.SetPreviewClients(n)
	// A new viewer needs a frame even if the picture is static.
	h.differ.reset()
	return n, true
}

func (h *Hub) remove(c *client) int {
	c.stop()
	c.conn.Close()

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	n := len(h.clients)
	h.recorder.SetPreviewClients(n)
	return n
}

// readPump discards viewer messages and keeps the read deadline fresh so
// pongs are processed.
func (h *Hub) readPump(c *client) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("preview read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				log.Debug("preview write error", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Due reports whether a frame published now would pass the rate limit. Hosts
// use it to avoid copying frames nobody will see.
func (h *Hub) Due(now time.Time) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0 && (h.interval == 0 || now.Sub(h.lastSent) >= h.interval)
}

// Publish encodes img and queues it for every viewer. Frames identical to the
// previous one are skipped.
func (h *Hub) Publish(img *image.RGBA) error {
	if img == nil || !h.Due(time.Now()) {
		return nil
	}
	if !h.differ.changed(img.Pix) {
		h.recorder.PreviewFrame(OutcomeUnchanged)
		return nil
	}

	frame, err := EncodeJPEG(img, h.quality)
	if err != nil {
		// Let the next frame through even if it matches this one.
		h.differ.reset()
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastSent = time.Now()
	for c := range h.clients {
		select {
		case c.send <- frame:
			h.recorder.PreviewFrame(OutcomeSent)
		default:
			h.recorder.PreviewFrame(OutcomeDropped)
		}
	}
	return nil
}

// Stats returns the number of frames checked and skipped as unchanged.
func (h *Hub) Stats() (total, skipped uint64) {
	return h.differ.stats()
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
}
