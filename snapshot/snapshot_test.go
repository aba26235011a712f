package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/rvcache/memory"
	"github.com/ezrec/rvcache/rverrors"
)

func buildInput(t *testing.T, pc uint32, regs [32]uint32, fragments [][2]uint32, data map[uint32][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, pc))
	for i := 1; i <= 31; i++ {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, regs[i]))
	}
	for _, f := range fragments {
		addr, size := f[0], f[1]
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, addr))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, size))
		buf.Write(data[addr])
	}
	return buf.Bytes()
}

func TestLoadBasic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var regs [32]uint32
	regs[1] = 8
	regs[2] = 5
	payload := map[uint32][]byte{0x1000: {0xEF, 0xBE, 0xAD, 0xDE}}
	raw := buildInput(t, 0, regs, [][2]uint32{{0x1000, 4}}, payload)

	s, err := Load(bytes.NewReader(raw))
	require.NoError(err)
	assert.Equal(uint32(0), s.PC)
	assert.Equal(uint32(8), s.Regs[1])
	assert.Equal(uint32(5), s.Regs[2])

	v, err := s.Memory.ReadU32(0x1000)
	require.NoError(err)
	assert.Equal(uint32(0xDEADBEEF), v)
}

func TestLoadOverlappingFragmentsLastWins(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var regs [32]uint32
	var buf bytes.Buffer
	require.NoError(binary.Write(&buf, binary.LittleEndian, uint32(0)))
	for i := 1; i <= 31; i++ {
		require.NoError(binary.Write(&buf, binary.LittleEndian, regs[i]))
	}
	writeFragment := func(addr uint32, b byte) {
		require.NoError(binary.Write(&buf, binary.LittleEndian, addr))
		require.NoError(binary.Write(&buf, binary.LittleEndian, uint32(1)))
		buf.WriteByte(b)
	}
	writeFragment(0x2000, 0x11)
	writeFragment(0x2000, 0x22)

	s, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(err)

	b, err := s.Memory.ReadByte(0x2000)
	require.NoError(err)
	assert.Equal(byte(0x22), b)
}

func TestLoadTruncatedIsInputIO(t *testing.T) {
	assert := assert.New(t)

	raw := make([]byte, 10) // shorter than the fixed PC+registers header.
	_, err := Load(bytes.NewReader(raw))
	assert.Error(err)
	assert.True(errors.Is(err, rverrors.ErrInputIO))
}

func TestLoadNoFragmentsIsValid(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var regs [32]uint32
	raw := buildInput(t, 0x100, regs, nil, nil)
	s, err := Load(bytes.NewReader(raw))
	require.NoError(err)
	assert.Equal(uint32(0x100), s.PC)
	b, err := s.Memory.ReadByte(0)
	require.NoError(err)
	assert.Equal(byte(0), b)
}

func TestSaveRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	mem := memory.New()
	require.NoError(mem.WriteU32(0x1000, 0xCAFEBABE))

	var regs [32]uint32
	regs[1] = 42

	var buf bytes.Buffer
	require.NoError(Save(&buf, 0x4, regs, mem, 0x1000, 4))

	s, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(err)
	assert.Equal(uint32(0x4), s.PC)
	assert.Equal(uint32(42), s.Regs[1])

	v, err := s.Memory.ReadU32(0x1000)
	require.NoError(err)
	assert.Equal(uint32(0xCAFEBABE), v)
}

func TestSaveOutputIOOnShortWriter(t *testing.T) {
	assert := assert.New(t)

	mem := memory.New()
	var regs [32]uint32
	err := Save(&limitedWriter{max: 2}, 0, regs, mem, 0, 4)
	assert.Error(err)
	assert.True(errors.Is(err, rverrors.ErrOutputIO))
}

// limitedWriter fails once it has accepted max bytes, simulating a full
// disk or a closed pipe partway through a write.
type limitedWriter struct {
	max, n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n >= l.max {
		return 0, errors.New("short write")
	}
	remaining := l.max - l.n
	if remaining > len(p) {
		remaining = len(p)
	}
	l.n += remaining
	if remaining < len(p) {
		return remaining, errors.New("short write")
	}
	return remaining, nil
}
