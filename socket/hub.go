// Package socket streams newly recorded samples to WebSocket subscribers.
// Each patient id is a room; a client subscribes to exactly one patient and
// receives every sample recorded for that patient while connected.
package socket

import (
	"encoding/json"
	"sync"

	"pulselog/internal/model"
	"pulselog/internal/storage"
	"pulselog/pkg/logger"
)

type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan model.Sample
	Register   chan *Client
	Unregister chan *Client

	store *storage.Store
	mu    sync.Mutex
}

func NewHub(store *storage.Store) *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan model.Sample),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		store:      store,
	}
}

// PublishSample hands a freshly stored sample to the hub for fan-out. It
// never blocks the caller beyond the hub picking the sample up.
func (h *Hub) PublishSample(smp model.Sample) {
	h.Broadcast <- smp
}

// Subscribers reports how many clients are currently in a patient's room.
func (h *Hub) Subscribers(patientID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[patientID])
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.PatientID] == nil {
				h.Rooms[client.PatientID] = make(map[*Client]bool)
			}
			h.Rooms[client.PatientID][client] = true
			h.mu.Unlock()
			logger.Sugar.Infof("Subscriber joined room %q", client.PatientID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Rooms[client.PatientID][client]; ok {
				delete(h.Rooms[client.PatientID], client)
				close(client.Send)
				if len(h.Rooms[client.PatientID]) == 0 {
					delete(h.Rooms, client.PatientID)
					logger.Sugar.Infof("Closed empty room %q", client.PatientID)
				}
			}
			h.mu.Unlock()

		case smp := <-h.Broadcast:
			payload, err := json.Marshal(smp)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling sample broadcast: %v", err)
				continue
			}

			// Collect recipients under the lock, write outside it.
			h.mu.Lock()
			clientsToSend := make([]*Client, 0, len(h.Rooms[smp.PatientID]))
			for client := range h.Rooms[smp.PatientID] {
				clientsToSend = append(clientsToSend, client)
			}
			h.mu.Unlock()

			for _, client := range clientsToSend {
				select {
				case client.Send <- payload:
				default:
					// A full buffer means the client is lagging. Drop it
					// rather than block the hub.
					logger.Sugar.Warnf("Subscriber in room %q is lagging, disconnecting", client.PatientID)
					go func(c *Client) { h.Unregister <- c }(client)
				}
			}
		}
	}
}
