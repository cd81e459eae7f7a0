/*
Package panel - state shared between the control panel and the link service.
Constructed once in main and passed to the listener (as its sink) and to the gateway
*/
package panel

import (
	"strings"
	"sync"

	"github.com/blabu/nanoporeLinkService/dto"
	"github.com/blabu/nanoporeLinkService/parser"
)

// Context - operator settings and the latest link events
type Context struct {
	mtx         sync.RWMutex
	host        string
	port        string
	controlBits dto.ControlVector
	message     string
	lastBatch   dto.SampleBatch
	lastSession *dto.SessionRecord

	subMtx    sync.Mutex
	onMessage []dto.StatusHandler
	onBatch   []dto.BatchHandler
}

func NewContext(host, port string) *Context {
	return &Context{
		host:        host,
		port:        port,
		controlBits: make(dto.ControlVector, dto.ControlBits),
	}
}

func (c *Context) SetEndpoint(host, port string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.host, c.port = strings.TrimSpace(host), strings.TrimSpace(port)
}

func (c *Context) Endpoint() (host, port string) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.host, c.port
}

// SetControlBits - stores the vector selected by the operator
func (c *Context) SetControlBits(bits dto.ControlVector) error {
	if err := parser.ValidateControlVector(bits); err != nil {
		return err
	}
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.controlBits = append(dto.ControlVector(nil), bits...)
	return nil
}

func (c *Context) ControlBits() dto.ControlVector {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return append(dto.ControlVector(nil), c.controlBits...)
}

// Message - last status line
func (c *Context) Message() string {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.message
}

// LastBatch - latest decoded frame, empty after the session end
func (c *Context) LastBatch() dto.SampleBatch {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.lastBatch
}

// LastSession - summary of the last finished session
func (c *Context) LastSession() (dto.SessionRecord, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	if c.lastSession == nil {
		return dto.SessionRecord{}, false
	}
	return *c.lastSession, true
}

// OnMessage - handler is called for every new status line
func (c *Context) OnMessage(h dto.StatusHandler) {
	c.subMtx.Lock()
	defer c.subMtx.Unlock()
	c.onMessage = append(c.onMessage, h)
}

// OnBatch - handler is called for every sample batch including terminal markers
func (c *Context) OnBatch(h dto.BatchHandler) {
	c.subMtx.Lock()
	defer c.subMtx.Unlock()
	c.onBatch = append(c.onBatch, h)
}

// Status - part of server.StatusSink
func (c *Context) Status(msg string) {
	c.mtx.Lock()
	c.message = msg
	c.mtx.Unlock()
	c.subMtx.Lock()
	handlers := append([]dto.StatusHandler(nil), c.onMessage...)
	c.subMtx.Unlock()
	for _, h := range handlers {
		h(msg)
	}
}

// Samples - part of server.StatusSink
func (c *Context) Samples(batch dto.SampleBatch) {
	c.mtx.Lock()
	c.lastBatch = batch
	c.mtx.Unlock()
	c.subMtx.Lock()
	handlers := append([]dto.BatchHandler(nil), c.onBatch...)
	c.subMtx.Unlock()
	for _, h := range handlers {
		h(batch)
	}
}

// SessionEnded - part of server.StatusSink
func (c *Context) SessionEnded(rec dto.SessionRecord) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.lastSession = &rec
}
