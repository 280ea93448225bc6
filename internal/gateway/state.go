package gateway

import (
	"fmt"
	"time"
)

// State is the connection state of the gateway
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for _, candidate := range []State{StateDisconnected, StateConnecting, StateConnected, StateDegraded} {
		if candidate.String() == string(b) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown gateway state %q", b)
}

// Origin says where a read was answered from
type Origin string

const (
	OriginStore   Origin = "store"
	OriginCatalog Origin = "catalog"
)

// Status is a point-in-time view of the connection state.
type Status struct {
	State     State     `json:"state"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"lastError,omitempty"`
	Since     time.Time `json:"since"`
}
