package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

// Protobuf stores proto messages in binary wire format.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *pb.Page { return &pb.Page{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.new == nil {
		var zero T
		return zero, errors.New("protobuf codec: nil constructor")
	}
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
