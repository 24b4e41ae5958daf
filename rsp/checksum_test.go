package rsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum_KnownValues(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{"", "00"},
		{"?", "3f"},
		{"g", "67"},
		{"S05", "b8"},
		{"xyz", "6b"},
		{"qSupported", "37"},
		{"PacketSize=512", "c8"},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatChecksum(Checksum([]byte(tt.payload))))
			assert.Equal(t, tt.payload+"#"+tt.want, AppendChecksum(tt.payload))
		})
	}
}

func TestChecksum_Wraps(t *testing.T) {
	payload := make([]byte, 300)
	for i := range payload {
		payload[i] = 0xFF
	}

	var want int
	for _, b := range payload {
		want += int(b)
	}

	assert.Equal(t, uint8(want%256), Checksum(payload))
}

func TestChecksum_Stable(t *testing.T) {
	payload := []byte("qSupported:multiprocess+;swbreak+;hwbreak+")
	first := Checksum(payload)

	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Checksum(payload))
	}
}

func TestFormatChecksum_TwoLowercaseDigits(t *testing.T) {
	for i := 0; i < 256; i++ {
		s := FormatChecksum(uint8(i))
		assert.Len(t, s, 2)
		assert.Equal(t, strings.ToLower(s), s)
	}

	assert.Equal(t, "0a", FormatChecksum(10))
	assert.Equal(t, "ff", FormatChecksum(255))
}

func TestFrame(t *testing.T) {
	assert.Equal(t, []byte("$?#3f"), Frame("?"))
	assert.Equal(t, []byte("$#00"), Frame(""))
	assert.Equal(t, []byte("$PacketSize=512#c8"), Frame("PacketSize=512"))
}
