package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/recera/kgcanvas/pkg/geom"
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/layout"
	"github.com/recera/kgcanvas/pkg/scene"
)

// MaxStringLength bounds every length-prefixed string in a frame.
const MaxStringLength = 4096

var (
	ErrShortFrame   = errors.New("frame too short")
	ErrNotEvent     = errors.New("not an event frame")
	ErrUnknownEvent = errors.New("unknown event type")
	ErrTooLong      = errors.New("string too long")
)

// Encoder handles encoding of live protocol messages
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Err returns the first write error.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) write(b []byte) error {
	if e.err != nil {
		return e.err
	}
	_, e.err = e.w.Write(b)
	return e.err
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	return e.write(binary.AppendUvarint(nil, v))
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// WriteBytes writes raw bytes
func (e *Encoder) WriteBytes(b []byte) error {
	return e.write(b)
}

// WriteFloat64 writes a little-endian IEEE 754 double.
func (e *Encoder) WriteFloat64(f float64) error {
	return e.write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(f)))
}

// WritePoint writes x then y.
func (e *Encoder) WritePoint(p geom.Point) error {
	if err := e.WriteFloat64(p.X); err != nil {
		return err
	}
	return e.WriteFloat64(p.Y)
}

// Decoder handles decoding of live protocol messages
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > MaxStringLength {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLong, length)
	}
	b, err := d.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes reads n bytes
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadFloat64 reads a little-endian IEEE 754 double.
func (d *Decoder) ReadFloat64() (float64, error) {
	b, err := d.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// ReadPoint reads x then y.
func (d *Decoder) ReadPoint() (geom.Point, error) {
	x, err := d.ReadFloat64()
	if err != nil {
		return geom.Point{}, err
	}
	y, err := d.ReadFloat64()
	if err != nil {
		return geom.Point{}, err
	}
	return geom.Pt(x, y), nil
}

// EncodeEvent encodes an event to binary format
func EncodeEvent(ev interact.Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	head := func(t EventType) { enc.WriteBytes([]byte{byte(FrameEvent), byte(t)}) }

	switch ev := ev.(type) {
	case interact.PrimaryPress:
		head(EventPrimaryPress)
		enc.WritePoint(ev.Point)
	case interact.SecondaryPress:
		head(EventSecondaryPress)
		enc.WritePoint(ev.Point)
	case interact.DragStart:
		head(EventDragStart)
		enc.WritePoint(ev.Point)
	case interact.PointerMove:
		head(EventPointerMove)
		enc.WritePoint(ev.Point)
	case interact.DragEnd:
		head(EventDragEnd)
	case interact.Wheel:
		head(EventWheel)
		enc.WritePoint(ev.Point)
		enc.WriteFloat64(ev.DeltaY)
	case interact.DoubleActivate:
		head(EventDoubleActivate)
		enc.WritePoint(ev.Point)
	case interact.ChooseCategory:
		head(EventChooseCategory)
		enc.WriteString(string(ev.Category))
	case interact.ConfirmNode:
		head(EventConfirmNode)
		enc.WriteString(ev.NameZh)
		enc.WriteString(ev.NameEn)
	case interact.CancelDialog:
		head(EventCancelDialog)
	case interact.CloseMenu:
		head(EventCloseMenu)
	case interact.SelectLayoutMode:
		head(EventSelectLayout)
		enc.WriteString(string(ev.Mode))
	case interact.ApplyCategoryFilter:
		head(EventCategoryFilter)
		enc.WriteUvarint(uint64(len(ev.Categories)))
		for _, c := range ev.Categories {
			enc.WriteString(string(c))
		}
	case interact.SetMinLinkStrength:
		head(EventMinStrength)
		enc.WriteUvarint(uint64(max(ev.Strength, 0)))
	case interact.ResetView:
		head(EventResetView)
	case interact.DeleteSelected:
		head(EventDeleteSelected)
	case ConfirmAnswer:
		head(EventConfirmAnswer)
		enc.WriteUvarint(ev.Token)
		ok := byte(0)
		if ev.OK {
			ok = 1
		}
		enc.WriteBytes([]byte{ok})
	default:
		return nil, fmt.Errorf("failed to encode event: %w: %T", ErrUnknownEvent, ev)
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeEvent decodes an event from binary format
func DecodeEvent(data []byte) (interact.Event, error) {
	if len(data) < 2 {
		return nil, ErrShortFrame
	}
	if data[0] != byte(FrameEvent) {
		return nil, ErrNotEvent
	}
	d := NewDecoder(bytes.NewReader(data[2:]))

	ev, err := decodePayload(EventType(data[1]), d)
	if err != nil {
		return nil, fmt.Errorf("failed to decode event 0x%02x: %w", data[1], err)
	}
	return ev, nil
}

func decodePayload(t EventType, d *Decoder) (interact.Event, error) {
	switch t {
	case EventPrimaryPress, EventSecondaryPress, EventDragStart, EventPointerMove, EventDoubleActivate:
		p, err := d.ReadPoint()
		if err != nil {
			return nil, err
		}
		switch t {
		case EventPrimaryPress:
			return interact.PrimaryPress{Point: p}, nil
		case EventSecondaryPress:
			return interact.SecondaryPress{Point: p}, nil
		case EventDragStart:
			return interact.DragStart{Point: p}, nil
		case EventPointerMove:
			return interact.PointerMove{Point: p}, nil
		}
		return interact.DoubleActivate{Point: p}, nil
	case EventDragEnd:
		return interact.DragEnd{}, nil
	case EventWheel:
		p, err := d.ReadPoint()
		if err != nil {
			return nil, err
		}
		dy, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		return interact.Wheel{Point: p, DeltaY: dy}, nil
	case EventChooseCategory:
		s, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return interact.ChooseCategory{Category: scene.Category(s)}, nil
	case EventConfirmNode:
		zh, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		en, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return interact.ConfirmNode{NameZh: zh, NameEn: en}, nil
	case EventCancelDialog:
		return interact.CancelDialog{}, nil
	case EventCloseMenu:
		return interact.CloseMenu{}, nil
	case EventSelectLayout:
		s, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return interact.SelectLayoutMode{Mode: layout.Mode(s)}, nil
	case EventCategoryFilter:
		n, err := d.ReadUvarint()
		if err != nil {
			return nil, err
		}
		if n > uint64(len(scene.Categories())) {
			return nil, fmt.Errorf("too many categories: %d", n)
		}
		cats := make([]scene.Category, 0, n)
		for i := uint64(0); i < n; i++ {
			s, err := d.ReadString()
			if err != nil {
				return nil, err
			}
			cats = append(cats, scene.Category(s))
		}
		return interact.ApplyCategoryFilter{Categories: cats}, nil
	case EventMinStrength:
		v, err := d.ReadUvarint()
		if err != nil {
			return nil, err
		}
		if v > uint64(scene.Strong) {
			return nil, fmt.Errorf("strength tier %d out of range", v)
		}
		return interact.SetMinLinkStrength{Strength: scene.Strength(v)}, nil
	case EventResetView:
		return interact.ResetView{}, nil
	case EventDeleteSelected:
		return interact.DeleteSelected{}, nil
	case EventConfirmAnswer:
		tok, err := d.ReadUvarint()
		if err != nil {
			return nil, err
		}
		ok, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		return ConfirmAnswer{Token: tok, OK: ok != 0}, nil
	}
	return nil, ErrUnknownEvent
}

// encodeControl builds a control frame: the type byte, the message name and
// optional uvarint arguments.
func encodeControl(name string, args ...uint64) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameControl)})
	enc.WriteString(name)
	for _, a := range args {
		enc.WriteUvarint(a)
	}
	return buf.Bytes()
}
