// Package sessionbus wraps the user's D-Bus session bus and the GNOME Shell
// window-calls extension reached through it.
package sessionbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

// ErrNotConnected is returned when the session bus could not be reached.
var ErrNotConnected = errors.New("session bus not connected")

// Caller invokes a method on a bus object and returns the reply body.
type Caller interface {
	Call(ctx context.Context, dest, path, method string, args ...interface{}) ([]interface{}, error)
}

// Conn is a lazily dialed session bus connection. A failed dial is retried on
// the next call so a bus that appears later is picked up.
type Conn struct {
	address string

	mu   sync.Mutex
	conn *dbus.Conn
}

var _ Caller = (*Conn)(nil)

// New returns a connection to address, or to the default session bus when
// address is empty. No I/O happens until the first call.
func New(address string) *Conn {
	return &Conn{address: address}
}

var dialFn = func(address string) (*dbus.Conn, error) {
	if address == "" {
		return dbus.ConnectSessionBus()
	}
	return dbus.Connect(address)
}

// Bus returns the underlying connection, dialing it on first use.
func (c *Conn) Bus() (*dbus.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.conn.Connected() {
		return c.conn, nil
	}
	conn, err := dialFn(c.address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	c.conn = conn
	return conn, nil
}

// Call implements Caller.
func (c *Conn) Call(ctx context.Context, dest, path, method string, args ...interface{}) ([]interface{}, error) {
	conn, err := c.Bus()
	if err != nil {
		return nil, err
	}
	call := conn.Object(dest, dbus.ObjectPath(path)).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, fmt.Errorf("%s: %w", method, call.Err)
	}
	return call.Body, nil
}

// NameHasOwner reports whether a well-known bus name is currently owned.
func (c *Conn) NameHasOwner(ctx context.Context, name string) (bool, error) {
	conn, err := c.Bus()
	if err != nil {
		return false, err
	}
	var owned bool
	err = conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned)
	if err != nil {
		return false, fmt.Errorf("NameHasOwner %s: %w", name, err)
	}
	return owned, nil
}

// Close closes the connection if one was dialed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
