package bitio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binschema/binschema/pkg/bitio"
)

func TestReadBits_BigEndian(t *testing.T) {
	// 0b1011_0010
	s := bitio.NewReader(bytes.NewReader([]byte{0xB2}))
	v, err := s.ReadBits(4, bitio.BigEndianBits)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1011), v)

	v2, err := s.ReadBits(4, bitio.BigEndianBits)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b0010), v2)
}

func TestReadBits_LittleEndian(t *testing.T) {
	s := bitio.NewReader(bytes.NewReader([]byte{0b1011_0010}))
	v, err := s.ReadBits(4, bitio.LittleEndianBits)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b0010), v)

	v2, err := s.ReadBits(4, bitio.LittleEndianBits)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1011), v2)
}

func TestReadBytesFlushesPendingBits(t *testing.T) {
	s := bitio.NewReader(bytes.NewReader([]byte{0xFF, 0xAB, 0xCD}))
	_, err := s.ReadBits(3, bitio.BigEndianBits)
	require.NoError(t, err)

	b, err := s.ReadBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAB, 0xCD}, b)
}

func TestWriteBitsThenBytePadsAndFlushes(t *testing.T) {
	var buf bytes.Buffer
	s := bitio.NewWriter(&buf)

	require.NoError(t, s.WriteBits(1, 1, bitio.LittleEndianBits)) // a
	require.NoError(t, s.WriteBits(2, 2, bitio.LittleEndianBits)) // b
	require.NoError(t, s.WriteBytes([]byte{0x03}))                // c, flushes a+b padded
	require.NoError(t, s.WriteBits(1, 1, bitio.LittleEndianBits)) // d
	require.NoError(t, s.Flush())

	assert.Equal(t, []byte{0x05, 0x03, 0x01}, buf.Bytes())
}

func TestWriteBitsBigEndianRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := bitio.NewWriter(&buf)
	require.NoError(t, w.WriteBits(0b101, 3, bitio.BigEndianBits))
	require.NoError(t, w.WriteBits(0b11001, 5, bitio.BigEndianBits))
	require.NoError(t, w.Flush())

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	a, err := r.ReadBits(3, bitio.BigEndianBits)
	require.NoError(t, err)
	b, err := r.ReadBits(5, bitio.BigEndianBits)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b101), a)
	assert.Equal(t, uint64(0b11001), b)
}

func TestResumeByteAlignmentOnRead(t *testing.T) {
	s := bitio.NewReader(bytes.NewReader([]byte{0xFF, 0x42}))
	_, err := s.ReadBits(3, bitio.BigEndianBits)
	require.NoError(t, err)
	require.NoError(t, s.ResumeByteAlignment())

	b, err := s.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)
}

func TestShortReadError(t *testing.T) {
	s := bitio.NewReader(bytes.NewReader([]byte{0x01}))
	_, err := s.ReadBytes(4)
	assert.ErrorIs(t, err, bitio.ErrShortRead)
}

func TestReadBytesTermExclusive(t *testing.T) {
	s := bitio.NewReader(bytes.NewReader([]byte{'h', 'i', 0x00, 'x'}))
	out, err := s.ReadBytesTerm(0x00, false, true, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), out)

	rest, err := s.ReadBytesFull()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), rest)
}

func TestEOFDetection(t *testing.T) {
	s := bitio.NewReader(bytes.NewReader([]byte{0x01, 0x02}))
	eof, err := s.EOF()
	require.NoError(t, err)
	assert.False(t, eof)

	_, err = s.ReadBytes(2)
	require.NoError(t, err)

	eof, err = s.EOF()
	require.NoError(t, err)
	assert.True(t, eof)
}
