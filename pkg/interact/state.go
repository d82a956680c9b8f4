package interact

import "fmt"

// State is the mode of the interaction state machine.
type State int

const (
	Idle State = iota
	Panning
	NodeSelected
	MenuOpen
	NodeDialogOpen
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case NodeSelected:
		return "node-selected"
	case MenuOpen:
		return "menu-open"
	case NodeDialogOpen:
		return "node-dialog-open"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for c := Idle; c <= NodeDialogOpen; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// StatusKind classifies a transient status message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarning
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusWarning:
		return "warning"
	case StatusError:
		return "error"
	}
	return "info"
}

// MarshalText implements encoding.TextMarshaler.
func (k StatusKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *StatusKind) UnmarshalText(b []byte) error {
	for c := StatusInfo; c <= StatusError; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown status kind %q", b)
}
