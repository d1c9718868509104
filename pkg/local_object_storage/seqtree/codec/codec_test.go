package codec_test

import (
	"testing"

	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/codec"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type item struct {
	Name  string   `yaml:"name"`
	Count int      `yaml:"count"`
	Tags  []string `yaml:"tags,omitempty"`
}

func TestRaw(t *testing.T) {
	var c codec.Raw

	b, err := c.Encode([]byte("data"))
	require.NoError(t, err)
	require.Equal(t, []byte("data"), b)

	v, err := c.Decode(b)
	require.NoError(t, err)
	require.Equal(t, []byte("data"), v)
}

func TestGob(t *testing.T) {
	var c codec.Gob[item]

	in := item{Name: "first", Count: 3, Tags: []string{"a", "b"}}

	b, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.Decode(b)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = c.Decode([]byte("definitely not gob"))
	require.Error(t, err)

	_, err = codec.Gob[func()]{}.Encode(func() {})
	require.Error(t, err)
}

func TestYAML(t *testing.T) {
	var c codec.YAML[item]

	b, err := c.Encode(item{Name: "first", Count: 3})
	require.NoError(t, err)
	require.Equal(t, "name: first\ncount: 3\n", string(b))

	out, err := c.Decode([]byte("name: second\ncount: 5\ntags: [x]\n"))
	require.NoError(t, err)
	require.Equal(t, item{Name: "second", Count: 5, Tags: []string{"x"}}, out)

	_, err = c.Decode([]byte("count: [not a number]"))
	require.Error(t, err)
}

func TestProto(t *testing.T) {
	t.Run("wrapper", func(t *testing.T) {
		c := codec.Proto[*wrapperspb.StringValue]{New: func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }}

		b, err := c.Encode(wrapperspb.String("payload"))
		require.NoError(t, err)

		out, err := c.Decode(b)
		require.NoError(t, err)
		require.Equal(t, "payload", out.GetValue())

		_, err = c.Decode([]byte{0xff, 0xff})
		require.Error(t, err)
	})

	t.Run("deterministic", func(t *testing.T) {
		c := codec.Proto[*structpb.Struct]{New: func() *structpb.Struct { return new(structpb.Struct) }}

		in, err := structpb.NewStruct(map[string]any{"b": 1, "a": "x", "c": true})
		require.NoError(t, err)

		b1, err := c.Encode(in)
		require.NoError(t, err)
		b2, err := c.Encode(in)
		require.NoError(t, err)
		require.Equal(t, b1, b2)

		out, err := c.Decode(b1)
		require.NoError(t, err)
		require.True(t, proto.Equal(in, out))
	})
}
