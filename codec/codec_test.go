package codec

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type page struct {
	URL     string    `json:"url" msgpack:"url" cbor:"url"`
	Body    string    `json:"body" msgpack:"body" cbor:"body"`
	Fetched time.Time `json:"fetched" msgpack:"fetched" cbor:"fetched"`
}

func TestStructCodecs(t *testing.T) {
	p := page{URL: "http://example.com", Body: "<html/>", Fetched: time.Unix(1700000000, 0).UTC()}
	codecs := map[string]Codec[page]{
		"json":    JSON[page]{},
		"msgpack": Msgpack[page]{},
		"cbor":    MustCBOR[page](CBOROptions{}),
		"cbordet": MustCBOR[page](CBOROptions{Deterministic: true}),
	}
	for name, c := range codecs {
		b, err := c.Encode(p)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if got.URL != p.URL || got.Body != p.Body || !got.Fetched.Equal(p.Fetched) {
			t.Fatalf("%s: got %+v want %+v", name, got, p)
		}
	}
}

func TestCBORRejectsDuplicateKeys(t *testing.T) {
	// {"url": "a", "url": "b"}
	raw := []byte{0xa2, 0x63, 'u', 'r', 'l', 0x61, 'a', 0x63, 'u', 'r', 'l', 0x61, 'b'}

	lax := MustCBOR[map[string]string](CBOROptions{})
	if _, err := lax.Decode(raw); err != nil {
		t.Fatalf("lax decode: %v", err)
	}
	strict := MustCBOR[map[string]string](CBOROptions{RejectDupMapKeys: true})
	if _, err := strict.Decode(raw); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestBytesDecodeDoesNotAlias(t *testing.T) {
	in := []byte("abc")
	out, _ := Bytes{}.Decode(in)
	out[0] = 'X'
	if string(in) != "abc" {
		t.Fatalf("Decode aliased input")
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("hello"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.GetValue() != "hello" {
		t.Fatalf("got %q", got.GetValue())
	}

	var zero Protobuf[*wrapperspb.StringValue]
	if _, err := zero.Decode(b); err == nil {
		t.Fatalf("expected error from zero-value codec")
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxEncode: 4, MaxDecode: 3}
	if _, err := c.Encode("hello"); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge on encode, got %v", err)
	}
	if b, err := c.Encode("hey"); err != nil || string(b) != "hey" {
		t.Fatalf("Encode small = %q,%v", b, err)
	}
	if _, err := c.Decode([]byte("four")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge on decode, got %v", err)
	}

	open := Limit[string]{Inner: String{}}
	if _, err := open.Encode("anything goes"); err != nil {
		t.Fatalf("zero caps should disable limits: %v", err)
	}
}
