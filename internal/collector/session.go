package collector

import (
	"context"
	"io"
	"net"

	"github.com/watchwire/watchwire/internal/record"
)

// attempt runs one peer session to its terminal outcome:
// dial, buffer everything until the peer closes, then decode.
//
// The wire format has no length prefix, so the only safe decode point is
// connection close. On any error the buffered bytes are discarded whole -
// a partial stream is never partially decoded.
func (c *Collector) attempt(ctx context.Context, p Peer) Outcome {
	if c.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.AttemptTimeout)
		defer cancel()
	}

	d := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", p.Addr())
	if err != nil {
		return Outcome{Peer: p, Err: classifyDial(err)}
	}
	defer conn.Close()

	// Propagate the attempt deadline to the read side; DialContext
	// only covers connection establishment.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	buf, err := io.ReadAll(conn)
	if err != nil {
		return Outcome{Peer: p, Err: classifyRead(err)}
	}

	records, err := record.Decode(buf)
	if err != nil {
		return Outcome{Peer: p, Err: err}
	}
	return Outcome{Peer: p, Records: records}
}
