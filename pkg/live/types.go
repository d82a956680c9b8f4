package live

import (
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/scene"
)

// MessageType is the first byte of a binary frame.
type MessageType uint8

const (
	FrameEvent   MessageType = 0x01
	FrameControl MessageType = 0x02
)

// EventType is the second byte of an event frame.
type EventType uint8

const (
	EventPrimaryPress   EventType = 0x01
	EventSecondaryPress EventType = 0x02
	EventDragStart      EventType = 0x03
	EventPointerMove    EventType = 0x04
	EventDragEnd        EventType = 0x05
	EventWheel          EventType = 0x06
	EventDoubleActivate EventType = 0x07
	EventChooseCategory EventType = 0x08
	EventConfirmNode    EventType = 0x09
	EventCancelDialog   EventType = 0x0A
	EventCloseMenu      EventType = 0x0B
	EventSelectLayout   EventType = 0x0C
	EventCategoryFilter EventType = 0x0D
	EventMinStrength    EventType = 0x0E
	EventResetView      EventType = 0x0F
	EventDeleteSelected EventType = 0x10
	EventConfirmAnswer  EventType = 0x11
)

// ConfirmAnswer is the client's reply to a confirm message.
type ConfirmAnswer struct {
	Token uint64
	OK    bool
}

func (ConfirmAnswer) Name() string { return "confirmAnswer" }

// Server text frames.
const (
	MessageFrame     = "frame"
	MessageStatus    = "status"
	MessageActivated = "activated"
	MessageConfirm   = "confirm"
	MessageError     = "error"
)

// Message is a JSON text frame sent to the client.
type Message struct {
	Type    string          `json:"type"`
	Seq     uint64          `json:"seq"`
	Frame   *interact.Frame `json:"frame,omitempty"`
	Status  *Status         `json:"status,omitempty"`
	Node    scene.NodeID    `json:"node,omitempty"`
	Confirm *Confirm        `json:"confirm,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Status carries an OnStatus call.
type Status struct {
	Message string              `json:"message"`
	Kind    interact.StatusKind `json:"kind"`
}

// Confirm asks the client to answer Token with an EventConfirmAnswer frame.
type Confirm struct {
	Token  uint64 `json:"token"`
	Prompt string `json:"prompt"`
}
