package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period; a failed ping drops the client.
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// reloadScript is formatted with the websocket and overlay paths.
const reloadScript = `(function () {
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  function overlay() {
    fetch(%[2]q, {cache: "no-store"})
      .then(function (r) { return r.text(); })
      .then(function (html) {
        var old = document.getElementById("sketchdoc-error-overlay");
        if (old) { old.remove(); }
        if (html) { document.body.insertAdjacentHTML("beforeend", html); }
      })
      .catch(function () {});
  }
  function connect(reconnected) {
    var ws = new WebSocket(scheme + location.host + %[1]q);
    ws.onopen = function () {
      if (reconnected) { location.reload(); }
    };
    ws.onmessage = function (ev) {
      try {
        if (JSON.parse(ev.data).type === "reload") { location.reload(); }
      } catch (e) {}
    };
    ws.onclose = function () {
      setTimeout(function () { connect(true); }, 1000);
    };
  }
  overlay();
  connect(false);
})();
`

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkOrigin(r) {
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns(),
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 16),
		server: s,
	}

	go client.writePump()
	go client.readPump()

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// checkOrigin requires a browser origin over http or https. The websocket
// handshake then checks the host against the request host and the
// loopback aliases of the configured port.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return originURL.Scheme == "http" || originURL.Scheme == "https"
}

func (s *Server) originPatterns() []string {
	return []string{
		fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		fmt.Sprintf("localhost:%d", s.cfg.Port),
		fmt.Sprintf("127.0.0.1:%d", s.cfg.Port),
	}
}

// RunHub registers clients and fans broadcasts out until ctx is done.
func (s *Server) RunHub(ctx context.Context) {
	defer s.stopHub()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "client connected", "clients", count)

		case conn := <-s.unregister:
			s.clientsMutex.Lock()
			if client, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(client.send)
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "client disconnected", "clients", count)

		case message := <-s.broadcast:
			s.clientsMutex.Lock()
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// slow client; it reconnects and reloads on its own
					delete(s.clients, conn)
					close(client.send)
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

// readPump drains the connection so that pings and closes are processed.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.server.unregister <- c.conn:
		case <-c.server.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, _, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.server.logger.Debug(context.Background(), "websocket closed", "error", err.Error())
			}
			return
		}
	}
}

// writePump pumps messages to the websocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
