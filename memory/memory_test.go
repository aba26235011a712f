package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/rvcache/rverrors"
)

func TestUnwrittenReadsAsZero(t *testing.T) {
	assert := assert.New(t)

	m := New()
	b, err := m.ReadByte(0x1234)
	assert.NoError(err)
	assert.Equal(byte(0), b)
}

func TestByteRoundTrip(t *testing.T) {
	assert := assert.New(t)

	m := New()
	assert.NoError(m.WriteByte(0x10, 0xAB))
	b, err := m.ReadByte(0x10)
	assert.NoError(err)
	assert.Equal(byte(0xAB), b)
}

func TestLittleEndianU16(t *testing.T) {
	assert := assert.New(t)

	m := New()
	assert.NoError(m.WriteU16(0x100, 0xBEEF))
	lo, _ := m.ReadByte(0x100)
	hi, _ := m.ReadByte(0x101)
	assert.Equal(byte(0xEF), lo)
	assert.Equal(byte(0xBE), hi)

	v, err := m.ReadU16(0x100)
	assert.NoError(err)
	assert.Equal(uint16(0xBEEF), v)
}

func TestLittleEndianU32(t *testing.T) {
	assert := assert.New(t)

	m := New()
	assert.NoError(m.WriteU32(0x1000, 0xDEADBEEF))

	b0, _ := m.ReadByte(0x1000)
	b1, _ := m.ReadByte(0x1001)
	b2, _ := m.ReadByte(0x1002)
	b3, _ := m.ReadByte(0x1003)
	assert.Equal(byte(0xEF), b0)
	assert.Equal(byte(0xBE), b1)
	assert.Equal(byte(0xAD), b2)
	assert.Equal(byte(0xDE), b3)

	v, err := m.ReadU32(0x1000)
	assert.NoError(err)
	assert.Equal(uint32(0xDEADBEEF), v)
}

func TestOutOfRange(t *testing.T) {
	assert := assert.New(t)

	m := New()

	_, err := m.ReadByte(AddressSpace)
	var oor *rverrors.OutOfRange
	assert.ErrorAs(err, &oor)
	assert.Equal(uint32(AddressSpace), oor.Address)

	err = m.WriteByte(AddressSpace, 1)
	assert.ErrorAs(err, &oor)

	// A multi-byte access whose final byte exceeds the space also fails.
	_, err = m.ReadU32(AddressSpace - 2)
	assert.ErrorAs(err, &oor)
}

func TestCloneIsIndependent(t *testing.T) {
	assert := assert.New(t)

	m := New()
	assert.NoError(m.WriteByte(0x10, 0xAB))

	c := m.Clone()
	assert.NoError(c.WriteByte(0x10, 0xFF))
	assert.NoError(c.WriteByte(0x20, 0x11))

	b, _ := m.ReadByte(0x10)
	assert.Equal(byte(0xAB), b, "writes to the clone must not affect the original")

	_, err := m.ReadByte(0x20)
	assert.NoError(err)
	b, _ = m.ReadByte(0x20)
	assert.Equal(byte(0), b)
}

func TestLastByteInRangeIsValid(t *testing.T) {
	assert := assert.New(t)

	m := New()
	assert.NoError(m.WriteByte(AddressSpace-1, 0x7F))
	b, err := m.ReadByte(AddressSpace - 1)
	assert.NoError(err)
	assert.Equal(byte(0x7F), b)
}
