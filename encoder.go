package hxnav

import (
	"errors"
	"fmt"

	"github.com/pthm/hxnav/lib/encoding"
)

// Encoder is an alias for encoding.Encoder for convenience.
type Encoder = encoding.Encoder

// NewEncoder creates an encoder for bootstrap state. Server and client must
// use the same key.
func NewEncoder(key []byte) (*Encoder, error) {
	return encoding.NewEncoder(key)
}

// encodeState packs recorded bootstrap values into the payload embedded in
// the page, signed or, when sealed, encrypted. It returns "" when nothing
// was recorded.
func encodeState(enc *Encoder, data map[string]any, sealed bool) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	state, err := enc.Encode(data, sealed)
	if err != nil {
		return "", fmt.Errorf("hxnav: encode bootstrap state: %w", err)
	}
	return state, nil
}

// decodeState reverses encodeState.
func decodeState(enc *Encoder, state string, sealed bool) (map[string]any, error) {
	if state == "" {
		return nil, nil
	}
	var data map[string]any
	if err := enc.Decode(state, sealed, &data); err != nil {
		return nil, wrapEncodingError(err)
	}
	return data, nil
}

// wrapEncodingError maps encoding package errors to ErrInvalidState.
func wrapEncodingError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, encoding.ErrInvalidFormat) ||
		errors.Is(err, encoding.ErrSignatureInvalid) ||
		errors.Is(err, encoding.ErrDecryptFailed) {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	return err
}
