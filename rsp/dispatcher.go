package rsp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Canned reply payloads.
const (
	// ReplyUnsupported is the empty reply: the stub does not implement the command.
	ReplyUnsupported = ""
	// ReplyStopped reports the target halted on SIGTRAP (signal 5).
	ReplyStopped = "S05"
	// ReplyError is returned when a command is known but could not be served.
	ReplyError = "E01"
)

// ReplySupported advertises the maximum packet size; no other feature is negotiated.
var ReplySupported = "PacketSize=" + strconv.Itoa(DefaultPacketSize)

// HandlerFunc produces the reply payload for a command payload.
type HandlerFunc func(payload string) string

// DispatcherOption is a functional option for configuring a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRegisters enables the 'g' command, answering with the values of r encoded in layout order.
func WithRegisters(layout RegisterLayout, r RegisterReader) DispatcherOption {
	return func(d *Dispatcher) {
		d.layout = layout
		d.registers = r
	}
}

// Dispatcher maps verified packet payloads to reply payloads.
//
// Built-in commands are checked first, in this order:
//
//   - payload containing "qSupported" → ReplySupported
//   - "?"                             → ReplyStopped
//   - "g"                             → register dump when WithRegisters is set
//
// Then an exact match on a handler registered with Handle, and finally ReplyUnsupported.
//
// A Dispatcher is safe for concurrent use; handlers may be registered while a session is running.
type Dispatcher struct {
	layout    RegisterLayout
	registers RegisterReader
	handlers  *xsync.MapOf[string, HandlerFunc]
}

// NewDispatcher creates a Dispatcher with the built-in commands.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handlers: xsync.NewMapOf[string, HandlerFunc](),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Handle registers fn for payloads exactly equal to command, replacing any previous handler.
// A nil fn removes the handler.
func (d *Dispatcher) Handle(command string, fn HandlerFunc) {
	if fn == nil {
		d.handlers.Delete(command)
		return
	}

	d.handlers.Store(command, fn)
}

// HandlerCount returns the number of registered custom handlers.
func (d *Dispatcher) HandlerCount() int {
	return d.handlers.Size()
}

// Reply returns the reply payload for payload.
func (d *Dispatcher) Reply(payload string) string {
	switch {
	case strings.Contains(payload, "qSupported"):
		return ReplySupported

	case payload == "?":
		return ReplyStopped

	case payload == "g" && d.registers != nil:
		return d.readRegisters()
	}

	if fn, ok := d.handlers.Load(payload); ok {
		return fn(payload)
	}

	return ReplyUnsupported
}

// BuildReply returns the acknowledged reply frame for payload: '+' followed by
// $<reply>#<xx>. The unsupported case is "+$#00".
func (d *Dispatcher) BuildReply(payload string) []byte {
	frame := Frame(d.Reply(payload))

	out := make([]byte, 0, len(frame)+1)
	out = append(out, ACK)

	return append(out, frame...)
}

func (d *Dispatcher) readRegisters() string {
	values, err := d.registers.ReadRegisters()
	if err != nil {
		return ReplyError
	}

	if d.layout != nil && len(values) != d.layout.Len() {
		return ReplyError
	}

	return EncodeRegisters(values)
}

// String implements fmt.Stringer for debugging.
func (d *Dispatcher) String() string {
	return fmt.Sprintf("Dispatcher{registers: %t, handlers: %d}", d.registers != nil, d.HandlerCount())
}
