package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/auth"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/config"
	"github.com/sujucu70/BeyondCXAnalytics-AE-v2-sub002/internal/metrics"
)

const sendQueueSize = 64

// timings bounds every read and write on a dashboard connection
type timings struct {
	readLimit  int64
	idle       time.Duration
	keepalive  time.Duration
	writeLimit time.Duration
}

func timingsFrom(cfg *config.Config) timings {
	return timings{
		readLimit:  cfg.MaxMessageSize,
		idle:       cfg.PongWait,
		keepalive:  cfg.PingPeriod,
		writeLimit: cfg.WriteWait,
	}
}

// Hello is the first frame a dashboard receives after connecting
type Hello struct {
	Type     string `json:"type"`
	ClientID string `json:"client_id"`
	Role     string `json:"role,omitempty"`
}

// Client is one dashboard subscribed to run events
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	// send is closed by the hub only
	send   chan []byte
	t      timings
	logger zerolog.Logger
}

// NewClient wraps an upgraded connection. The hello frame is queued before the
// client is registered so it always arrives first.
func NewClient(hub *Hub, conn *websocket.Conn, cfg *config.Config, logger zerolog.Logger, claims *auth.Claims) *Client {
	c := &Client{
		id:   uuid.NewString(),
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		t:    timingsFrom(cfg),
	}

	hello := Hello{Type: "hello", ClientID: c.id}
	fields := logger.With().Str("client_id", c.id)
	if claims != nil {
		hello.Role = claims.Role
		fields = fields.Str("user", claims.Email)
	}
	c.logger = fields.Logger()

	if frame, err := json.Marshal(hello); err == nil {
		c.send <- frame
	}
	return c
}

// Start runs the connection until either side goes away
func (c *Client) Start() {
	go c.deliver()
	go c.listen()
}

// listen drains inbound frames so control messages are processed. Dashboards
// have nothing to say, anything they send is ignored.
func (c *Client) listen() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.t.idle))
	}
	c.conn.SetReadLimit(c.t.readLimit)
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				metrics.Get().RecordWebSocketError()
				c.logger.Warn().Err(err).Msg("dashboard connection lost")
			}
			return
		}
	}
}

// deliver is the only writer on the connection
func (c *Client) deliver() {
	keepalive := time.NewTicker(c.t.keepalive)
	defer func() {
		keepalive.Stop()
		c.conn.Close()
	}()

	for {
		var err error
		select {
		case frame, open := <-c.send:
			if !open {
				c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			err = c.write(websocket.TextMessage, frame)
		case <-keepalive.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			c.logger.Debug().Err(err).Msg("write to dashboard failed")
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.t.writeLimit))
	return c.conn.WriteMessage(kind, data)
}
