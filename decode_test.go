package dynpb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalarAndNestedMessage(t *testing.T) {
	root := NewRoot()

	inner := NewType("B")
	require.NoError(t, inner.AddField(NewField("name", 1, "string", Singular)))
	require.NoError(t, root.AddType(inner))

	outer := NewType("A")
	require.NoError(t, outer.AddField(NewField("id", 1, "int32", Singular)))
	require.NoError(t, outer.AddField(NewField("b", 2, "B", Singular)))
	require.NoError(t, root.AddType(outer))

	require.NoError(t, root.ResolveAll())

	// field id=1: int32 value 7; field b=2: nested {name: "hi"}
	buf := []byte{
		0x08, 0x07,
		0x12, 0x04, 0x0a, 0x02, 'h', 'i',
	}
	msg, err := Decode(outer, buf)
	require.NoError(t, err)

	idField, _ := outer.FieldByName("id")
	assert.EqualValues(t, 7, msg.Get(idField))

	bField, _ := outer.FieldByName("b")
	nested := msg.GetMessage(bField)
	require.NotNil(t, nested)
	nameField, _ := inner.FieldByName("name")
	assert.Equal(t, "hi", nested.Get(nameField))
}

func TestDecodeEnumFieldAsInt32(t *testing.T) {
	root := NewRoot()

	e := NewEnum("E")
	e.Add("FOO", 0)
	e.Add("BAR", 1)
	require.NoError(t, root.AddEnum(e))

	msgType := NewType("A")
	require.NoError(t, msgType.AddField(NewField("e", 3, "E", Singular)))
	require.NoError(t, root.AddType(msgType))
	require.NoError(t, root.ResolveAll())

	buf := []byte{0x18, 0x01} // tag(3, varint), value 1
	msg, err := Decode(msgType, buf)
	require.NoError(t, err)

	f, _ := msgType.FieldByName("e")
	assert.True(t, f.IsBasic())
	assert.EqualValues(t, 1, msg.Get(f))
	name, ok := f.ResolvedEnum().Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "BAR", name)
}

func TestDecodeOneofClearsSibling(t *testing.T) {
	root := NewRoot()
	msgType := NewType("A")
	msgType.AddOneOf("which")
	x := NewField("x", 4, "int32", Singular)
	x.OneofIndex = 0
	y := NewField("y", 5, "int32", Singular)
	y.OneofIndex = 0
	require.NoError(t, msgType.AddField(x))
	require.NoError(t, msgType.AddField(y))
	require.NoError(t, root.AddType(msgType))
	require.NoError(t, root.ResolveAll())

	// x=10, then y=20: y must win, x must be cleared.
	buf := []byte{0x20, 0x0a, 0x28, 0x14}
	msg, err := Decode(msgType, buf)
	require.NoError(t, err)

	assert.False(t, msg.Has(x))
	assert.True(t, msg.Has(y))
	assert.EqualValues(t, 20, msg.Get(y))

	which, ok := msg.Which(0)
	require.True(t, ok)
	assert.EqualValues(t, 5, which)
}

func TestDecodeMapField(t *testing.T) {
	root := NewRoot()
	msgType := NewType("A")
	f := NewField("tags", 6, "string", Repeated)
	f.IsMap = true
	f.KeyType = "string"
	require.NoError(t, msgType.AddField(f))
	require.NoError(t, root.AddType(msgType))
	require.NoError(t, root.ResolveAll())

	buf := []byte{0x32, 0x06, 0x0a, 0x01, 'a', 0x12, 0x01, 'b'}
	msg, err := Decode(msgType, buf)
	require.NoError(t, err)

	m := msg.GetMap(f)
	require.NotNil(t, m)
	assert.Equal(t, "b", m["a"])
}

func TestDecodeMissingRequiredFieldIsProtocolError(t *testing.T) {
	root := NewRoot()
	msgType := NewType("C")
	require.NoError(t, msgType.AddField(NewField("req", 7, "int32", Required)))
	require.NoError(t, root.AddType(msgType))
	require.NoError(t, root.ResolveAll())

	_, err := Decode(msgType, nil)
	require.Error(t, err)

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	require.NotNil(t, perr.Instance)
}

func TestDecodeUnknownFieldSkippedWithoutError(t *testing.T) {
	root := NewRoot()
	msgType := NewType("A")
	require.NoError(t, msgType.AddField(NewField("id", 1, "int32", Singular)))
	require.NoError(t, root.AddType(msgType))
	require.NoError(t, root.ResolveAll())

	buf := []byte{
		0x08, 0x07, // field 1 = 7
		0x98, 0x06, 0x01, // unknown field 99, varint, value 1
	}
	msg, err := Decode(msgType, buf)
	require.NoError(t, err)
	f, _ := msgType.FieldByName("id")
	assert.EqualValues(t, 7, msg.Get(f))
}

func TestDecodePackedAndUnpackedRepeatedInterchange(t *testing.T) {
	root := NewRoot()
	msgType := NewType("A")
	require.NoError(t, msgType.AddField(NewField("nums", 2, "int32", Repeated)))
	require.NoError(t, root.AddType(msgType))
	require.NoError(t, root.ResolveAll())

	buf := []byte{
		0x10, 0x05, // unpacked element: 5
		0x12, 0x03, 0x01, 0x02, 0x03, // packed elements: 1, 2, 3
	}
	msg, err := Decode(msgType, buf)
	require.NoError(t, err)

	f, _ := msgType.FieldByName("nums")
	list := msg.GetRepeated(f)
	assert.Equal(t, []any{int32(5), int32(1), int32(2), int32(3)}, list)
}

func TestResolveAllFailsOnUnknownReference(t *testing.T) {
	root := NewRoot()
	msgType := NewType("A")
	require.NoError(t, msgType.AddField(NewField("b", 1, "Missing", Singular)))
	require.NoError(t, root.AddType(msgType))

	err := root.ResolveAll()
	require.Error(t, err)
	var uerr *UnresolvedReferenceError
	require.ErrorAs(t, err, &uerr)
}

func TestExtensionFieldAttachesAcrossTypes(t *testing.T) {
	root := NewRoot()
	base := NewType("Base")
	require.NoError(t, root.AddType(base))

	ext := NewField("foo", 100, "int32", Singular)
	ext.Extend = "Base"
	root.AddExtensionField(ext, nil, "")

	require.Empty(t, root.DeferredNames())

	sister, ok := base.FieldByName("Base.foo")
	require.True(t, ok)
	assert.True(t, sister.IsResolved())
	assert.True(t, sister.IsBasic())

	buf := []byte{0xa0, 0x06, 0x2a} // tag(100, varint), value 42
	msg, err := Decode(base, buf)
	require.NoError(t, err)
	assert.EqualValues(t, 42, msg.Get(sister))
}

func TestExtensionDeferredUntilTargetLoaded(t *testing.T) {
	root := NewRoot()

	ext := NewField("foo", 100, "int32", Singular)
	ext.Extend = "Base"
	root.AddExtensionField(ext, nil, "")
	assert.Len(t, root.DeferredNames(), 1)

	base := NewType("Base")
	require.NoError(t, root.AddType(base)) // AddType retries the deferred list

	assert.Empty(t, root.DeferredNames())
	_, ok := base.FieldByName("Base.foo")
	assert.True(t, ok)
}
