package livereload

import (
	"net/http"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/websocket"
)

// Script reloads the page when the server says something changed.
var Script = "new WebSocket(`ws://${location.host}/ws`).onmessage = () => location.reload()"

// LiveReload keeps track of the pages that are open in a browser.
type LiveReload struct {
	mu       sync.Mutex
	sockets  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   log.Logger
}

func New(logger log.Logger) *LiveReload {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &LiveReload{
		sockets: map[*websocket.Conn]bool{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger,
	}
}

func (lr *LiveReload) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := lr.upgrader.Upgrade(w, r, nil)
	if err != nil {
		level.Warn(lr.logger).Log("msg", "websocket upgrade failed", "err", err)
		return
	}

	lr.mu.Lock()
	lr.sockets[ws] = true
	lr.mu.Unlock()
}

// Connections returns the number of open sockets.
func (lr *LiveReload) Connections() int {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return len(lr.sockets)
}

// Notify tells every open page to reload.
func (lr *LiveReload) Notify() {
	lr.mu.Lock()
	defer lr.mu.Unlock()

	for ws := range lr.sockets {
		err := ws.WriteMessage(websocket.TextMessage, []byte("reload"))

		if err != nil {
			// Assume this means the socket has been closed
			delete(lr.sockets, ws)
			ws.Close()
		}
	}
}
