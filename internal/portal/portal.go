// Package portal requests screenshots from xdg-desktop-portal over the session
// bus.
package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/1broseidon/shotty/internal/logger"
)

// Portal D-Bus constants
const (
	DesktopDest     = "org.freedesktop.portal.Desktop"
	desktopPath     = "/org/freedesktop/portal/desktop"
	screenshotIface = "org.freedesktop.portal.Screenshot"
	requestIface    = "org.freedesktop.portal.Request"
)

// Response codes of org.freedesktop.portal.Request.Response.
const (
	responseSuccess   = 0
	responseCancelled = 1
	responseOther     = 2
)

var (
	ErrCancelled = errors.New("portal request cancelled by user")
	ErrDenied    = errors.New("portal request denied")
	ErrNoURI     = errors.New("portal response carried no uri")
	ErrTimeout   = errors.New("timeout waiting for portal response")
)

// Bus is the part of the session bus connection the portal client needs.
type Bus interface {
	Bus() (*dbus.Conn, error)
	NameHasOwner(ctx context.Context, name string) (bool, error)
}

// Options for a single Screenshot request.
type Options struct {
	// Interactive lets the user pick the area or window.
	Interactive bool
}

// Client issues Screenshot requests.
type Client struct {
	bus     Bus
	timeout time.Duration
	seq     atomic.Uint64
}

// NewClient returns a portal client. timeout bounds each Screenshot request,
// including any user interaction.
func NewClient(bus Bus, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{bus: bus, timeout: timeout}
}

// Available reports whether a portal implementation owns its bus name.
func (c *Client) Available(ctx context.Context) bool {
	owned, err := c.bus.NameHasOwner(ctx, DesktopDest)
	if err != nil {
		logger.WithComponent("portal").Debug().Err(err).Msg("Portal probe failed")
		return false
	}
	return owned
}

// Screenshot asks the portal for a screenshot and returns the file URI of
// the image it wrote. The client timeout covers the whole request: match
// registration, the Screenshot call and the Response wait.
func (c *Client) Screenshot(ctx context.Context, opts Options) (string, error) {
	log := logger.WithComponent("portal")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.bus.Bus()
	if err != nil {
		return "", err
	}

	token := fmt.Sprintf("shotty%d_%d", os.Getpid(), c.seq.Add(1))
	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token),
		"interactive":  dbus.MakeVariant(opts.Interactive),
		"modal":        dbus.MakeVariant(true),
	}

	// Subscribe before calling; the portal may answer before Store returns.
	responseChan := make(chan *dbus.Signal, 10)
	matchRule := fmt.Sprintf("type='signal',interface='%s',member='Response'", requestIface)
	if err := conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		}
		log.Warn().Err(err).Msg("Failed to add match rule")
	} else {
		defer conn.BusObject().Call("org.freedesktop.DBus.RemoveMatch", 0, matchRule)
	}
	conn.Signal(responseChan)
	defer conn.RemoveSignal(responseChan)

	var requestPath dbus.ObjectPath
	err = conn.Object(DesktopDest, desktopPath).
		CallWithContext(ctx, screenshotIface+".Screenshot", 0, "", options).
		Store(&requestPath)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: Screenshot call: %v", ErrTimeout, ctx.Err())
		}
		return "", fmt.Errorf("Screenshot call failed: %w", err)
	}

	log.Debug().
		Str("request_path", string(requestPath)).
		Bool("interactive", opts.Interactive).
		Msg("Waiting for Screenshot response")

	return waitResponse(ctx, responseChan, requestPath)
}

// waitResponse returns the result of the Response signal emitted on
// requestPath. Signals for other requests are ignored.
func waitResponse(ctx context.Context, signals <-chan *dbus.Signal, requestPath dbus.ObjectPath) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case sig, ok := <-signals:
			if !ok {
				return "", fmt.Errorf("session bus closed while waiting for portal")
			}
			if sig.Path != requestPath || sig.Name != requestIface+".Response" {
				continue
			}
			return parseResponse(sig.Body)
		}
	}
}

func parseResponse(body []interface{}) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("invalid response: %d values", len(body))
	}
	code, ok := body[0].(uint32)
	if !ok {
		return "", fmt.Errorf("invalid response code type %T", body[0])
	}
	switch code {
	case responseSuccess:
	case responseCancelled:
		return "", ErrCancelled
	case responseOther:
		return "", ErrDenied
	default:
		return "", fmt.Errorf("%w (code %d)", ErrDenied, code)
	}

	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("invalid response results type %T", body[1])
	}
	v, ok := results["uri"]
	if !ok {
		return "", ErrNoURI
	}
	uri, ok := v.Value().(string)
	if !ok || uri == "" {
		return "", ErrNoURI
	}
	return uri, nil
}

// FilePath converts a file:// URI from the portal into a local path.
func FilePath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported uri scheme %q", u.Scheme)
	}
	if u.Path == "" {
		return "", fmt.Errorf("uri %q has no path", uri)
	}
	return u.Path, nil
}
