package relay

// Room represents a single classroom where any number of participants meet.
type Room struct {
	// ID is the unique identifier for the room.
	ID string

	// Members maps socket ids to the clients currently in the room.
	Members map[string]*Client
}

// NewRoom creates an empty room.
func NewRoom(id string) *Room {
	return &Room{
		ID:      id,
		Members: make(map[string]*Client),
	}
}

// PeerIDs returns the socket ids of everyone in the room, self included.
func (r *Room) PeerIDs() []string {
	ids := make([]string, 0, len(r.Members))
	for id := range r.Members {
		ids = append(ids, id)
	}
	return ids
}
