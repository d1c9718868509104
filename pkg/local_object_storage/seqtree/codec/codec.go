// Package codec provides serialization of objects kept in a tree. Codec
// output is stored as is, the tree never looks inside it.
package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"google.golang.org/protobuf/proto"
	"gopkg.in/yaml.v3"
)

// Codec converts objects to bytes and back.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// Raw stores byte slices unchanged.
type Raw struct{}

// Encode implements Codec.
func (Raw) Encode(b []byte) ([]byte, error) {
	return b, nil
}

// Decode implements Codec.
func (Raw) Decode(b []byte) ([]byte, error) {
	return b, nil
}

// Gob encodes objects with encoding/gob. Every object is encoded by its own
// encoder, so type information is repeated in each file.
type Gob[T any] struct{}

// Encode implements Codec.
func (Gob[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(v)
	if err != nil {
		return nil, fmt.Errorf("gob: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode implements Codec.
func (Gob[T]) Decode(b []byte) (T, error) {
	var v T

	err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v)
	if err != nil {
		return v, fmt.Errorf("gob: %w", err)
	}

	return v, nil
}

// YAML encodes objects as YAML documents.
type YAML[T any] struct{}

// Encode implements Codec.
func (YAML[T]) Encode(v T) ([]byte, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return b, nil
}

// Decode implements Codec.
func (YAML[T]) Decode(b []byte) (T, error) {
	var v T

	err := yaml.Unmarshal(b, &v)
	if err != nil {
		return v, fmt.Errorf("yaml: %w", err)
	}

	return v, nil
}

// Proto encodes protobuf messages in binary wire format. New MUST return an
// empty message to decode into.
type Proto[T proto.Message] struct {
	New func() T
}

// Encode implements Codec.
func (Proto[T]) Encode(m T) ([]byte, error) {
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("protobuf: %w", err)
	}

	return b, nil
}

// Decode implements Codec.
func (c Proto[T]) Decode(b []byte) (T, error) {
	m := c.New()

	err := proto.Unmarshal(b, m)
	if err != nil {
		return m, fmt.Errorf("protobuf: %w", err)
	}

	return m, nil
}
