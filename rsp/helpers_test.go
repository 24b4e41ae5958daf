package rsp

import (
	"testing"

	"github.com/arloliu/go-rsp/logger"
	"github.com/stretchr/testify/require"
)

// recordingHandler is a PacketHandler recording every callback.
type recordingHandler struct {
	packets   []string
	invalid   []error
	naks      int
	packetErr error
	nakErr    error
}

func (h *recordingHandler) HandlePacket(payload []byte) error {
	h.packets = append(h.packets, string(payload))
	return h.packetErr
}

func (h *recordingHandler) HandleInvalidPacket(err error) error {
	h.invalid = append(h.invalid, err)
	return nil
}

func (h *recordingHandler) HandleNAK() error {
	h.naks++
	return h.nakErr
}

// newTestFramer creates a Framer with a silent logger and a fresh recordingHandler.
func newTestFramer(t *testing.T, opts ...FramerOption) (*Framer, *recordingHandler) {
	t.Helper()

	h := &recordingHandler{}
	f, err := NewFramer(h, append([]FramerOption{WithFramerLogger(logger.NewNop())}, opts...)...)
	require.NoError(t, err)

	return f, h
}
