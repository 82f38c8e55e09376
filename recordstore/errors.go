package recordstore

import "errors"

var (
	ErrEmptyKey = errors.New("recordstore: record key must not be empty")
	ErrExists   = errors.New("recordstore: record already exists")
	ErrFull     = errors.New("recordstore: store is full")

	// ErrKeyCodec means the configured key codec does not round-trip keys.
	// It is a configuration error reported by New.
	ErrKeyCodec = errors.New("recordstore: key codec does not round-trip")

	ErrInvalidOptions = errors.New("recordstore: invalid options")
)
