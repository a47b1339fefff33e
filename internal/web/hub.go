// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web serves the latest attitude record and the resource-pair
// transitions over HTTP, and streams both to websocket clients.
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/resource_sync/internal/attitude"
	"github.com/relabs-tech/resource_sync/internal/resources"
)

// maxEvents is how many recent transitions /api/resources returns.
const maxEvents = 64

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// Message is what websocket clients receive.
type Message struct {
	Type     string           `json:"type"` // "attitude" or "resource"
	Attitude *attitude.Record `json:"attitude,omitempty"`
	Event    *resources.Event `json:"event,omitempty"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes
}

func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Hub keeps the latest data and the connected websocket clients.
type Hub struct {
	mu         sync.RWMutex
	lastRecord attitude.Record
	haveRecord bool
	events     []resources.Event

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// PublishRecord stores rec as the latest record and broadcasts it.
func (h *Hub) PublishRecord(rec attitude.Record) error {
	h.mu.Lock()
	h.lastRecord = rec
	h.haveRecord = true
	h.mu.Unlock()

	h.broadcast(Message{Type: "attitude", Attitude: &rec})
	return nil
}

// PublishEvent appends ev to the recent transitions and broadcasts it.
func (h *Hub) PublishEvent(ev resources.Event) error {
	h.mu.Lock()
	h.events = append(h.events, ev)
	if len(h.events) > maxEvents {
		h.events = h.events[len(h.events)-maxEvents:]
	}
	h.mu.Unlock()

	h.broadcast(Message{Type: "resource", Event: &ev})
	return nil
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	h.clientsMu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.clientsMu.Unlock()

	for _, c := range targets {
		if err := c.send(msg); err != nil {
			log.Printf("web: websocket write error: %v", err)
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.conn.Close()
	}
}

// Handler returns the HTTP routes:
//
//	GET /api/attitude   latest record, 503 until one arrived
//	GET /api/resources  recent actor transitions
//	GET /ws             websocket stream of Message
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/attitude", h.handleAttitude)
	mux.HandleFunc("/api/resources", h.handleResources)
	mux.HandleFunc("/ws", h.handleWS)
	return mux
}

// Latest returns the most recent record, if any arrived.
func (h *Hub) Latest() (attitude.Record, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastRecord, h.haveRecord
}

// Events returns a copy of the recent transitions, oldest first.
func (h *Hub) Events() []resources.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	events := make([]resources.Event, len(h.events))
	copy(events, h.events)
	return events
}

func (h *Hub) handleAttitude(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rec); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (h *Hub) handleResources(w http.ResponseWriter, r *http.Request) {
	events := h.Events()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(events); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn}
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
	log.Printf("web: websocket client connected (%s)", r.RemoteAddr)

	// Reads only detect the close; clients have nothing to say.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	log.Printf("web: websocket client disconnected (%s)", r.RemoteAddr)
}
