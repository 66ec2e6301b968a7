package boot

import "time"

// State identifies one phase of the bootstrap chain. The chain is a
// single sequential control flow; states advance monotonically and the
// whole trace is kept so tests and the status API can assert exact
// transition sequences.
type State string

const (
	StateReaping             State = "reaping"
	StateStartingDisplay     State = "starting_display"
	StateProbingDisplay      State = "probing_display"
	StateStartingScreenShare State = "starting_screenshare"
	StateProbingScreenShare  State = "probing_screenshare"
	StateStartingBridge      State = "starting_bridge"
	StateProbingBridge       State = "probing_bridge"
	StateBridgeSkipped       State = "bridge_skipped"
	StateHandingOff          State = "handing_off"
	StateRunning             State = "running"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// Transition is one recorded state change.
type Transition struct {
	State  State     `json:"state"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}
