package relay

import (
	"log"

	"github.com/edulive/classmesh/internal/signaling"
)

// inbound pairs a decoded envelope with the client that sent it.
type inbound struct {
	client *Client
	env    *signaling.Envelope
}

// Hub is the central brain of the signaling relay.
// It manages all active rooms and clients.
type Hub struct {
	// rooms maps room IDs to Room instances.
	Rooms map[string]*Room

	// clients maps socket ids to connections, for directed routing.
	Clients map[string]*Client

	// Register is a channel for registering new clients.
	Register chan *Client

	// Unregister is a channel for unregistering clients.
	Unregister chan *Client

	// Inbound carries decoded client frames into the hub loop.
	Inbound chan *inbound
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]*Room),
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *inbound),
	}
}

// Run starts the hub's main processing loop.
// This is the single goroutine that safely manages all state (rooms, clients).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case msg := <-h.Inbound:
			h.dispatch(msg.client, msg.env)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.Clients[client.SocketID] = client
	log.Printf("Client registered: %s", client.SocketID)

	// The first thing every client learns is its own connection id.
	h.send(client, signaling.EventWelcome, signaling.WelcomePayload{SocketID: client.SocketID})
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.Clients[client.SocketID]; !ok {
		return
	}
	log.Printf("Client unregistered: %s", client.SocketID)

	h.removeFromRoom(client, true)
	delete(h.Clients, client.SocketID)

	// Close the client's send channel to stop its WritePump.
	close(client.Send)
}

// dispatch is the core signaling logic, one case per protocol event.
func (h *Hub) dispatch(client *Client, env *signaling.Envelope) {
	switch env.Event {

	case signaling.EventJoinRoom:
		var p signaling.JoinRoomPayload
		if err := env.DecodePayload(&p); err != nil || p.RoomID == "" {
			log.Printf("join-room failed: bad payload from %s", client.SocketID)
			return
		}
		h.joinRoom(client, p)

	case signaling.EventLeaveRoom:
		h.removeFromRoom(client, true)

	case signaling.EventWho:
		room, ok := h.roomOf(client)
		if !ok {
			return
		}
		h.send(client, signaling.EventRoomUsers, signaling.RoomUsersPayload{Peers: room.PeerIDs()})

	case signaling.EventOffer, signaling.EventAnswer:
		var p signaling.DescriptionPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		target, ok := h.directedTarget(client, p.To)
		if !ok {
			log.Printf("%s failed: no target %q for %s", env.Event, p.To, client.SocketID)
			return
		}
		p.To = ""
		p.From = client.SocketID
		h.send(target, env.Event, p)

	case signaling.EventICECandidate:
		var p signaling.CandidatePayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		target, ok := h.directedTarget(client, p.To)
		if !ok {
			return
		}
		p.To = ""
		p.From = client.SocketID
		h.send(target, env.Event, p)

	case signaling.EventBroadcast:
		var p signaling.BroadcastPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		room, ok := h.roomOf(client)
		if !ok {
			return
		}
		out := signaling.BroadcastPayload{Event: p.Event, Payload: p.Payload, From: client.SocketID}
		for id, member := range room.Members {
			if id == client.SocketID {
				continue
			}
			h.send(member, signaling.EventBroadcast, out)
		}

	case signaling.EventKickUser:
		var p signaling.KickUserPayload
		if err := env.DecodePayload(&p); err != nil {
			return
		}
		h.kickUser(client, p)

	default:
		log.Printf("Unknown event %q from %s", env.Event, client.SocketID)
	}
}

func (h *Hub) joinRoom(client *Client, p signaling.JoinRoomPayload) {
	client.UserID = p.UserID
	client.Role = p.Role

	room, ok := h.Rooms[p.RoomID]
	if !ok {
		room = NewRoom(p.RoomID)
		h.Rooms[p.RoomID] = room
		log.Printf("Room created: %s", p.RoomID)
	}

	client.RoomID = p.RoomID
	room.Members[client.SocketID] = client
	log.Printf("Client %s joined room %s (role=%s)", client.SocketID, p.RoomID, p.Role)

	// Everyone already present learns about the newcomer.
	for id, member := range room.Members {
		if id == client.SocketID {
			continue
		}
		h.send(member, signaling.EventUserJoined, signaling.PresenceChangePayload{SocketID: client.SocketID})
	}
}

func (h *Hub) kickUser(client *Client, p signaling.KickUserPayload) {
	if client.Role != "teacher" {
		log.Printf("kick-user denied: %s is not a teacher", client.SocketID)
		return
	}
	room, ok := h.roomOf(client)
	if !ok || room.ID != p.RoomID {
		return
	}
	target, ok := room.Members[p.TargetID]
	if !ok {
		return
	}

	log.Printf("Client %s kicked from room %s by %s", target.SocketID, room.ID, client.SocketID)
	h.send(target, signaling.EventKicked, signaling.RoomPayload{RoomID: room.ID})
	h.removeFromRoom(target, true)
}

// removeFromRoom takes a client out of its room, deleting the room when it
// empties and notifying the remaining members when notify is set.
func (h *Hub) removeFromRoom(client *Client, notify bool) {
	if client.RoomID == "" {
		return
	}
	room, ok := h.Rooms[client.RoomID]
	if !ok {
		client.RoomID = ""
		return
	}

	delete(room.Members, client.SocketID)
	client.RoomID = ""

	if len(room.Members) == 0 {
		delete(h.Rooms, room.ID)
		log.Printf("Room deleted: %s", room.ID)
		return
	}

	if notify {
		for _, member := range room.Members {
			h.send(member, signaling.EventUserLeft, signaling.PresenceChangePayload{SocketID: client.SocketID})
		}
	}
}

// directedTarget resolves a directed message target, constrained to the
// sender's own room so clients cannot signal across rooms.
func (h *Hub) directedTarget(client *Client, to string) (*Client, bool) {
	room, ok := h.roomOf(client)
	if !ok {
		return nil, false
	}
	target, ok := room.Members[to]
	return target, ok
}

func (h *Hub) roomOf(client *Client) (*Room, bool) {
	if client.RoomID == "" {
		return nil, false
	}
	room, ok := h.Rooms[client.RoomID]
	return room, ok
}

// send queues an envelope for a client without blocking the hub loop.
// A client whose send buffer is full is dropped rather than stalling everyone.
func (h *Hub) send(client *Client, event string, payload any) {
	env, err := signaling.NewEnvelope(event, payload)
	if err != nil {
		log.Printf("error encoding %s payload: %v", event, err)
		return
	}
	select {
	case client.Send <- env:
	default:
		log.Printf("send buffer full, dropping %s for %s", event, client.SocketID)
	}
}
