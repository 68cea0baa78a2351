package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/srg/ringctl/internal/link"
	"github.com/srg/ringctl/internal/ring"
)

// formatUserError turns internal error chains into a message suitable for
// stderr. Technical detail stays in the logs; the terminal gets the cause and
// the likely fix.
func formatUserError(err error) string {
	var cerr *link.ConnectionError
	switch {
	// Mismatch sentinels arrive wrapped in a ConnectionError; check them first
	// so retries-exhausted phrasing does not hide the real cause.
	case errors.Is(err, link.ErrServiceNotFound):
		return "the device at this address is not a Colmi ring (UART service missing)"
	case errors.Is(err, link.ErrCharacteristicNotFound):
		return "the ring's GATT table is incomplete - try power-cycling the ring"
	case errors.As(err, &cerr):
		return fmt.Sprintf("could not reach the ring at %s (%d attempts) - make sure it is charged and within range",
			cerr.Address, cerr.Attempts)
	case errors.Is(err, &link.WriteError{}):
		return fmt.Sprintf("the connection dropped mid-command: %v", err)
	case errors.Is(err, ring.ErrResponseTimeout):
		return "the ring connected but never answered - it may be busy with another measurement"
	case errors.Is(err, context.DeadlineExceeded):
		return "operation timed out"
	default:
		return err.Error()
	}
}
