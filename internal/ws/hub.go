package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/logger"
)

// Hub управляет всеми WebSocket клиентами, сгруппированными по адресу кошелька.
// Лента только сообщает, что сделка изменилась; клиент перечитывает её сам.
type Hub struct {
	mu         sync.RWMutex
	clients    map[valueobject.Address]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	ctx        context.Context
}

type message struct {
	addr    valueobject.Address
	payload []byte
}

// NewHub создаёт новый хаб. ctx ограничивает жизнь цикла Run.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		clients:    make(map[valueobject.Address]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 32),
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg.addr, msg.payload)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// BroadcastToAddress отправляет событие всем подключениям адреса.
func (h *Hub) BroadcastToAddress(addr valueobject.Address, event string, data any) error {
	if err := h.ctx.Err(); err != nil {
		return err
	}

	// Контракт WebSocket API: "type" - имя события, "data" - полезная нагрузка.
	raw, err := json.Marshal(map[string]any{
		"type": event,
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	select {
	case h.broadcast <- message{addr: addr, payload: raw}:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

// ConnectedClients возвращает число подключений адреса.
func (h *Hub) ConnectedClients(addr valueobject.Address) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[addr])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.addr]; !ok {
		h.clients[client.addr] = make(map[*Client]struct{})
	}
	h.clients[client.addr][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.addr]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)
		}
		if len(clients) == 0 {
			delete(h.clients, client.addr)
		}
	}
}

func (h *Hub) send(addr valueobject.Address, payload []byte) {
	h.mu.RLock()
	var slow []*Client
	for client := range h.clients[addr] {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Медленный клиент теряет соединение, а не задерживает остальных.
	for _, client := range slow {
		if logger.Log != nil {
			logger.Log.WithField("address", addr.String()).Warn("ws: client buffer full, dropping connection")
		}
		h.removeClient(client)
		client.conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for addr, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
		delete(h.clients, addr)
	}
}
