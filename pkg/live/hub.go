package live

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/logging"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames and the occasional ping text.
	maxMessageSize = 4 * 1024
)

// Hub upgrades viewer connections and relays broker events to them.
type Hub struct {
	broker   *Broker
	upgrader websocket.Upgrader
	metrics  *metrics.Registry
	logger   logging.Logger
}

// NewHub creates a Hub. Cross-origin upgrades are accepted only from
// allowedOrigins; "*" accepts any origin.
func NewHub(broker *Broker, allowedOrigins []string, reg *metrics.Registry, logger logging.Logger) *Hub {
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Hub{
		broker: broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		metrics: reg,
		logger:  logging.OrNop(logger).With(logging.Component("live")),
	}
}

// Broker returns the hub's event broker.
func (h *Hub) Broker() *Broker { return h.broker }

// Publish counts and broadcasts ev.
func (h *Hub) Publish(ev Event) {
	h.metrics.LiveEventsTotal.WithLabelValues(ev.Type).Inc()
	n := h.broker.Publish(ev)
	h.logger.Debug("published event", logging.String("type", ev.Type), logging.String("graph", ev.Graph), logging.Count(n))
}

// checkOrigin allows same-host requests and the configured origins.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

// ServeHTTP upgrades the request. ?graph=name limits events to one graph.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("graph")
	if topic == "" {
		topic = TopicAll
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", logging.Error(err), logging.String("remote", r.RemoteAddr))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.broker.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
		conn.Close()
		return
	}

	c := &client{
		id:     uuid.NewString(),
		conn:   conn,
		sub:    sub,
		cancel: cancel,
	}
	c.logger = h.logger.With(logging.String("connection_id", c.id), logging.String("topic", topic))

	h.metrics.LiveClients.Inc()
	c.logger.Info("viewer connected", logging.String("remote", r.RemoteAddr))

	go func() {
		c.writePump(Event{Type: EventHello, Graph: topic, Time: time.Now().UTC()})
		h.metrics.LiveClients.Dec()
		c.logger.Info("viewer disconnected")
	}()
	go c.readPump()
}

type client struct {
	id     string
	conn   *websocket.Conn
	sub    *Subscription
	cancel context.CancelFunc
	logger logging.Logger
}

// readPump discards client messages and ends the subscription when the
// peer goes away.
func (c *client) readPump() {
	defer c.cancel()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read error", logging.Error(err))
			}
			return
		}
	}
}

// writePump sends the greeting, then every event until the subscription
// closes, pinging the peer in between.
func (c *client) writePump(hello Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
	}()

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(hello); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				c.logger.Warn("websocket write failed", logging.Error(err))
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
