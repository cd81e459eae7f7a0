/*
Package connector - instrument side of the link.
Used by the bench simulator and by tests to play the role of the nanopore device
*/
package connector

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/blabu/nanoporeLinkService/dto"
	"github.com/blabu/nanoporeLinkService/parser"
)

//ConfConnection - connection configuration
type ConfConnection struct {
	Address     string
	DialTimeout time.Duration
	BitOrder    parser.BitOrder
}

//IConnection - instrument connection
type IConnection interface {
	SendFrame(f dto.SampleFrame) error
	SendRaw(data []byte) error
	ReadControl(timeout time.Duration) (dto.ControlVector, byte, error)
	Close() error
}

//Connection - implementation of IConnection over TCP
type Connection struct {
	conn net.Conn
	cnf  ConfConnection
}

//NewInstrumentConnection - dials the listener service
func NewInstrumentConnection(cnf ConfConnection) (*Connection, error) {
	if cnf.DialTimeout == 0 {
		cnf.DialTimeout = 5 * time.Second
	}
	conn, err := net.DialTimeout("tcp", cnf.Address, cnf.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("can not connect to %s: %w", cnf.Address, err)
	}
	return &Connection{conn: conn, cnf: cnf}, nil
}

// LocalAddr - address of the instrument side
func (c *Connection) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Conn - underlying socket
func (c *Connection) Conn() net.Conn {
	return c.conn
}

func (c *Connection) SendFrame(f dto.SampleFrame) error {
	return c.SendRaw(parser.EncodeSampleFrame(f))
}

// SendRaw - writes bytes as is, partial frames included
func (c *Connection) SendRaw(data []byte) error {
	_, err := c.conn.Write(data)
	return err
}

// ReadControl - waits for one control byte, timeout 0 waits forever
func (c *Connection) ReadControl(timeout time.Duration) (dto.ControlVector, byte, error) {
	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}
	var b [1]byte
	if _, err := io.ReadFull(c.conn, b[:]); err != nil {
		return nil, 0, err
	}
	return parser.UnpackControlByteOrder(b[0], c.cnf.BitOrder), b[0], nil
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

// SyntheticFrame - frame with a ramp per channel starting at t0, used by the simulator
func SyntheticFrame(t0 int16) dto.SampleFrame {
	var f dto.SampleFrame
	for i := 0; i < dto.SamplesPerChannel; i++ {
		t := t0 + int16(i)
		for ch := 0; ch < dto.ChannelsCount; ch++ {
			f[ch*dto.SamplesPerChannel+i] = t * int16(ch+1)
		}
		f[dto.ChannelsCount*dto.SamplesPerChannel+i] = t
	}
	return f
}
