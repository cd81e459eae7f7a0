package server

import (
	"net"

	"go.uber.org/atomic"
)

// trafficCounterConn - counts bytes passed through the connection in both directions
type trafficCounterConn struct {
	net.Conn
	received    atomic.Uint64
	transmitted atomic.Uint64
}

func newTrafficCounter(conn net.Conn) *trafficCounterConn {
	return &trafficCounterConn{Conn: conn}
}

func (c *trafficCounterConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	c.received.Add(uint64(n))
	return n, err
}

func (c *trafficCounterConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	c.transmitted.Add(uint64(n))
	return n, err
}
