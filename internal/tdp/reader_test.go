package tdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUvarintRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want uint64
	}{
		{"single byte", []byte{0x01}, 1},
		{"two bytes", []byte{0xac, 0x02}, 300},
		{"max shift", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}, 1<<64 - 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(tc.buf)
			got, err := r.Uvarint()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, len(tc.buf), r.Pos())
		})
	}
}

func TestUvarintTruncated(t *testing.T) {
	r := NewReader([]byte{0x80, 0x80})
	_, err := r.Uvarint()
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Truncated())
}

func TestUvarintOverflow(t *testing.T) {
	// Nine continuation-flagged bytes, then a tenth byte carrying more than bit 0.
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	r := NewReader(buf)
	_, err := r.Uvarint()
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Malformed())
}

func TestSintZigZag(t *testing.T) {
	r := NewReader([]byte{0x01}) // zigzag(1) = -1
	v, err := r.Sint32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)

	r = NewReader([]byte{0x02}) // zigzag(2) = 1
	v, err = r.Sint32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestFixed32AndFloat(t *testing.T) {
	// IEEE-754 little-endian encoding of 1.0f is 00 00 80 3f.
	r := NewReader([]byte{0x00, 0x00, 0x80, 0x3f})
	f, err := r.Float()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), f)

	// The same four bytes read as a raw little-endian fixed32.
	r = NewReader([]byte{0x00, 0x00, 0x80, 0x3f})
	u, err := r.Fixed32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3f800000), u)
}

func TestStringRejectsInvalidUTF8(t *testing.T) {
	r := NewReader([]byte{0x01, 0xff})
	_, err := r.String()
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Malformed())
}

func TestBytesAliasesBuffer(t *testing.T) {
	buf := []byte{0x03, 'a', 'b', 'c'}
	r := NewReader(buf)
	b, err := r.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)
	// Bytes returned without copying: mutating the source must be visible.
	buf[1] = 'x'
	assert.Equal(t, byte('x'), b[0])
}

func TestSkipTypeUnknownWireType(t *testing.T) {
	r := NewReader(nil)
	err := r.SkipType(1, 6)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Malformed())
}

func TestSkipGroupNested(t *testing.T) {
	// Field 5 start-group, containing field 1 varint 7, field 6 nested
	// start/end group, then field 5 end-group.
	buf := []byte{
		Tag5Start(),
		0x08, 0x07, // field 1, varint, value 7
		Tag6Start(),
		Tag6End(),
		Tag5End(),
	}
	r := NewReader(buf)
	tag, err := r.Uvarint()
	require.NoError(t, err)
	id, wt := SplitTag(tag)
	require.Equal(t, int32(5), id)
	require.EqualValues(t, WireStartGroup, wt)
	require.NoError(t, r.SkipType(uint64(id), WireStartGroup))
	assert.Equal(t, len(buf), r.Pos())
}

// Tag5Start/Tag6Start/Tag6End/Tag5End build single-byte start/end group tags
// for small field ids, used only to keep the nested-skip test readable.
func Tag5Start() byte { return byte(Tag(5, WireStartGroup)) }
func Tag5End() byte   { return byte(Tag(5, WireEndGroup)) }
func Tag6Start() byte { return byte(Tag(6, WireStartGroup)) }
func Tag6End() byte   { return byte(Tag(6, WireEndGroup)) }
