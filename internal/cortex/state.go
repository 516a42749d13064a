package cortex

import (
	"fmt"
	"time"
)

// SystemState is the engine lifecycle state.
type SystemState int

const (
	StateOffline      SystemState = 0
	StateInitializing SystemState = 1
	StateCalibrating  SystemState = 2
	StateSyncing      SystemState = 3
	StateActive       SystemState = 4
	StateCombatReady  SystemState = 5
	StateError        SystemState = 99
)

func (s SystemState) String() string {
	switch s {
	case StateOffline:
		return "OFFLINE"
	case StateInitializing:
		return "INITIALIZING"
	case StateCalibrating:
		return "CALIBRATING"
	case StateSyncing:
		return "SYNCING"
	case StateActive:
		return "ACTIVE"
	case StateCombatReady:
		return "COMBAT_READY"
	case StateError:
		return "ERROR"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

func (s SystemState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Operational reports whether the heartbeat may run in this state.
func (s SystemState) Operational() bool {
	return s == StateActive || s == StateCombatReady
}

// canTransition encodes the allowed lifecycle edges.
func canTransition(from, to SystemState) bool {
	if to == StateError {
		return from != StateError
	}
	switch from {
	case StateOffline:
		return to == StateInitializing
	case StateInitializing:
		return to == StateCalibrating
	case StateCalibrating:
		return to == StateSyncing
	case StateSyncing:
		return to == StateActive
	case StateActive:
		return to == StateCombatReady
	case StateCombatReady:
		return to == StateActive
	default:
		return false
	}
}

func transitionError(from, to SystemState) error {
	return fmt.Errorf("%w: %s -> %s", ErrLifecycleOrder, from, to)
}

// Transition records one state change.
type Transition struct {
	From SystemState
	To   SystemState
	At   time.Time
}

// NeuralNode describes one compute node.
type NeuralNode struct {
	NodeID   string  `json:"node_id"`
	Capacity float64 `json:"capacity"`
	Load     float64 `json:"load"`
	Status   string  `json:"status"`
	Latency  float64 `json:"latency"`
}

// NewNeuralNode returns an idle node with the given capacity.
func NewNeuralNode(id string, capacity float64) NeuralNode {
	return NeuralNode{NodeID: id, Capacity: capacity, Status: "IDLE"}
}

// VectorProcess describes one inference process bound to a weights file.
type VectorProcess struct {
	PID         int    `json:"pid"`
	VectorDim   int    `json:"vector_dim"`
	WeightsPath string `json:"weights_path"`
	Active      bool   `json:"active"`
}
