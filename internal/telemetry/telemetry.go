// Package telemetry reports conversion outcomes to an opt-in socket.io
// endpoint. Reporting never affects the conversion result.
package telemetry

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/specialistvlad/modelopt/internal/ctxlog"
)

// EventName is the socket.io event carrying a conversion report.
const EventName = "mo"

// DefaultTimeout bounds a whole report, connection included.
const DefaultTimeout = 5 * time.Second

// Event is one conversion report.
type Event struct {
	Framework string
	IRVersion int
	Status    string
	Version   string
}

func (e Event) payload() map[string]any {
	return map[string]any{
		"framework":  e.Framework,
		"ir_version": e.IRVersion,
		"status":     e.Status,
		"version":    e.Version,
	}
}

// Sender delivers events.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// Client sends each event over a short-lived socket.io connection.
type Client struct {
	URL       string
	Namespace string
}

// New returns a Client for the endpoint at rawURL. The URL path is used as
// the socket.io path.
func New(rawURL string) *Client {
	return &Client{URL: rawURL, Namespace: "/"}
}

// Send connects, emits ev, waits for the server to acknowledge it and
// disconnects. It gives up when ctx is done.
func (c *Client) Send(ctx context.Context, ev Event) error {
	logger := ctxlog.FromContext(ctx).With("telemetry_url", c.URL)

	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("telemetry URL %q needs a scheme and a host", c.URL)
	}

	opts := socket.DefaultOptions()
	if u.Path != "" {
		opts.SetPath(u.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(fmt.Sprintf("%s://%s", u.Scheme, u.Host), opts)
	io := manager.Socket(c.Namespace, opts)
	defer io.Disconnect()

	connected := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connected <- err
	})
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	}

	logger.Debug("Emitting telemetry event.", "event", EventName, "sid", io.Id())
	acked := make(chan error, 1)
	if deadline, ok := ctx.Deadline(); ok {
		io.Timeout(time.Until(deadline))
	}
	err = io.Emit(EventName, ev.payload(), func(_ []any, err error) {
		select {
		case acked <- err:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("emit %s: %w", EventName, err)
	}

	// Disconnect drops queued packets.
	select {
	case err := <-acked:
		if err != nil {
			return fmt.Errorf("event %s not acknowledged: %w", EventName, err)
		}
	case <-ctx.Done():
		return fmt.Errorf("waiting for %s acknowledgement: %w", EventName, ctx.Err())
	}
	return nil
}

// Report sends ev through s within DefaultTimeout. Failures are logged at
// debug level and otherwise ignored.
func Report(ctx context.Context, s Sender, ev Event) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	if err := s.Send(ctx, ev); err != nil {
		ctxlog.FromContext(ctx).Debug("Telemetry not sent.", "error", err)
	}
}
