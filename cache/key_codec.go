package cache

import "net/url"

// KeyCodec turns natural keys into storage-safe keys and back.
// Implementations must satisfy Decode(Encode(k)) == k for every k.
type KeyCodec interface {
	Encode(key string) string
	Decode(encoded string) (string, error)
}

// urlKeyCodec is form-style percent encoding: spaces become '+', reserved
// characters such as '/' and '+' are escaped as %XX over their UTF-8 bytes.
type urlKeyCodec struct{}

// NewURLKeyCodec returns the default key codec.
func NewURLKeyCodec() KeyCodec {
	return urlKeyCodec{}
}

func (urlKeyCodec) Encode(key string) string {
	return url.QueryEscape(key)
}

func (urlKeyCodec) Decode(encoded string) (string, error) {
	return url.QueryUnescape(encoded)
}

// EncodeKey encodes key with the default codec.
func EncodeKey(key string) string {
	return urlKeyCodec{}.Encode(key)
}

// DecodeKey decodes key with the default codec.
func DecodeKey(encoded string) (string, error) {
	return urlKeyCodec{}.Decode(encoded)
}
