package websockets

import (
	"sync"
	"timeoff/config"
	"timeoff/internal/database"
	"timeoff/internal/events"
	"timeoff/internal/logger"

	"github.com/gofiber/websocket/v2"
)

// Manager forwards change events to every connected dashboard so the
// summary cards re-render without polling.
type Manager struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     logger.Logger
}

func New(db database.DB, eventBus *events.EventBus, config config.Config) (*Manager, error) {
	m := &Manager{
		clients: map[*websocket.Conn]struct{}{},
		log:     logger.New("websockets"),
	}

	eventBus.Subscribe(m.broadcast)

	return m, nil
}

// HandleWebSocket owns one dashboard connection for its lifetime.
// Inbound messages are ignored; the socket is push-only.
func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()

	log.Debug("dashboard connected", "clients", m.clientCount())

	defer func() {
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
		_ = c.Close()
		log.Debug("dashboard disconnected", "clients", m.clientCount())
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Manager) broadcast(event events.ChangeEvent) {
	log := m.log.Function("broadcast")

	m.mu.Lock()
	defer m.mu.Unlock()

	for client := range m.clients {
		if err := client.WriteJSON(event); err != nil {
			log.Warn("failed to push change event, dropping client", "error", err)
			delete(m.clients, client)
			_ = client.Close()
		}
	}
}

func (m *Manager) clientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
