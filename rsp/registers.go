package rsp

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// RegisterLayout is the ordered list of register names reported by the 'g' command.
type RegisterLayout []string

// Len returns the number of registers in the layout.
func (l RegisterLayout) Len() int {
	return len(l)
}

// Index returns the position of the named register, or -1.
func (l RegisterLayout) Index(name string) int {
	for i, n := range l {
		if n == name {
			return i
		}
	}

	return -1
}

// MIPSRegisterLayout is the 32-bit MIPS layout GDB expects from a 'g' reply:
// 32 general purpose registers followed by status, lo, hi, bad address, cause,
// program counter, float status and float implementation registers.
var MIPSRegisterLayout = newMIPSRegisterLayout()

func newMIPSRegisterLayout() RegisterLayout {
	layout := make(RegisterLayout, 0, 40)
	for i := 0; i < 32; i++ {
		layout = append(layout, fmt.Sprintf("r%d", i))
	}

	return append(layout, "sr", "lo", "hi", "bad", "cause", "pc", "fsr", "fir")
}

// RegisterReader supplies register values for the 'g' command, in layout order.
type RegisterReader interface {
	ReadRegisters() ([]uint32, error)
}

// RegisterReaderFunc adapts a function to RegisterReader.
type RegisterReaderFunc func() ([]uint32, error)

// ReadRegisters implements RegisterReader.
func (fn RegisterReaderFunc) ReadRegisters() ([]uint32, error) {
	return fn()
}

// StaticRegisters is a RegisterReader returning a fixed snapshot.
type StaticRegisters []uint32

// NewStaticRegisters builds a snapshot for layout with the named values set and every
// other register zero. Unknown names are ignored.
func NewStaticRegisters(layout RegisterLayout, values map[string]uint32) StaticRegisters {
	regs := make(StaticRegisters, layout.Len())
	for name, v := range values {
		if i := layout.Index(name); i >= 0 {
			regs[i] = v
		}
	}

	return regs
}

// ReadRegisters implements RegisterReader.
func (s StaticRegisters) ReadRegisters() ([]uint32, error) {
	out := make([]uint32, len(s))
	copy(out, s)

	return out, nil
}

// EncodeRegisters renders each value as 8 lowercase hex digits, most significant byte first.
func EncodeRegisters(values []uint32) string {
	var sb strings.Builder
	sb.Grow(len(values) * 8)

	var buf [4]byte
	for _, v := range values {
		binary.BigEndian.PutUint32(buf[:], v)
		sb.WriteString(hex.EncodeToString(buf[:]))
	}

	return sb.String()
}
