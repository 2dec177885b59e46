package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when a frame or payload cannot be decoded.
	ErrMalformed = errors.New("wire: malformed frame")

	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum.
	// An oversized incoming frame additionally matches ErrMalformed; an oversized
	// outgoing frame does not, since nothing malformed was received.
	ErrFrameTooLarge = errors.New("wire: frame too large")

	// ErrChecksum is returned when the payload checksum does not match.
	// It wraps ErrMalformed.
	ErrChecksum = fmt.Errorf("%w: checksum mismatch", ErrMalformed)

	// ErrUnexpectedMessage is returned when a frame of the wrong type arrives.
	ErrUnexpectedMessage = errors.New("wire: unexpected message type")
)
