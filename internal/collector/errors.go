package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Per-peer failure taxonomy. Decode failures surface as
// record.ErrMalformedRecord; everything else maps onto one of these.
var (
	// ErrConnection covers refused, reset and unreachable peers -
	// the peer never sent any data.
	ErrConnection = errors.New("connection failed")

	// ErrTransport covers read failures after the connection was
	// established.
	ErrTransport = errors.New("transport failed")

	// ErrTimeout marks an attempt forced terminal by its deadline.
	ErrTimeout = errors.New("attempt timed out")
)

// classifyDial maps a dial error onto the taxonomy.
func classifyDial(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// classifyRead maps a post-connect read error onto the taxonomy.
func classifyRead(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
