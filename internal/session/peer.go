package session

// PeerState tracks negotiation progress with one remote peer, for
// observability. The offering side walks New -> OfferSent -> Connected;
// the answering side walks New -> OfferReceived -> AnswerSent -> Connected.
// Closed is terminal and reachable from anywhere.
type PeerState int

const (
	StateNew PeerState = iota
	StateOfferSent
	StateOfferReceived
	StateAnswerSent
	StateConnected
	StateClosed
)

func (s PeerState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateOfferSent:
		return "offer-sent"
	case StateOfferReceived:
		return "offer-received"
	case StateAnswerSent:
		return "answer-sent"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Peer is one remote participant currently believed present. The peer entry
// and its media connection are created and destroyed together: the peers map
// and the set of open connections stay in 1:1 correspondence.
type Peer struct {
	// ID is the remote party's relay-assigned connection id.
	ID string

	// Conn is exclusively owned by this peer entry.
	Conn MediaConn

	State PeerState

	// DisplayName arrives asynchronously via the meta broadcast; empty is
	// valid.
	DisplayName string

	// RemoteStreamID is set once inbound media arrives; empty means the
	// peer joined but media is not flowing yet.
	RemoteStreamID string
}
