package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"go.uber.org/atomic"

	"github.com/blabu/nanoporeLinkService/dto"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
	"github.com/blabu/nanoporeLinkService/parser"
	"github.com/blabu/nanoporeLinkService/stat"
)

var lastSessionID atomic.Uint32

// Status lines of the session end
const (
	reasonDisconnected = "Client disconnected."
	reasonReset        = "Client connection reset."
	reasonAborted      = "Connection aborted by server."
)

/*
Session - one accepted instrument connection.
Owns the socket, reads frames until the first read failure or Stop
and is the only writer of control bytes while alive
*/
type Session struct {
	ID      uint32
	conn    *trafficCounterConn
	peer    string
	sink    StatusSink
	st      *stat.Statistics
	onEnd   func(*Session, dto.SessionRecord)
	started time.Time

	wmtx sync.Mutex // one control byte at a time

	mtx        sync.Mutex
	terminated bool
	reason     string // why the socket was closed by us

	startOnce sync.Once
	done      chan struct{}

	frames       atomic.Uint64
	decodeErrors atomic.Uint64
	controlBytes atomic.Uint64
}

// NewSession - wraps the connection. onEnd is called once from the receive loop after it stops
func NewSession(conn net.Conn, sink StatusSink, st *stat.Statistics, onEnd func(*Session, dto.SessionRecord)) *Session {
	if sink == nil {
		sink = nopSink{}
	}
	if st == nil {
		st = stat.CreateStatistics()
	}
	return &Session{
		ID:      lastSessionID.Inc(),
		conn:    newTrafficCounter(conn),
		peer:    conn.RemoteAddr().String(),
		sink:    CreatePanicCoverSink(sink),
		st:      st,
		onEnd:   onEnd,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// Peer - remote address of the instrument
func (s *Session) Peer() string {
	return s.peer
}

// Done - closed when the receive loop has finished and onEnd returned
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsTerminated - true after Stop, a write failure or the end of the receive loop
func (s *Session) IsTerminated() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.terminated
}

// Start - runs the receive loop in its own goroutine and returns at once
func (s *Session) Start() {
	s.startOnce.Do(func() {
		log.Infof("Session %d with %s started", s.ID, s.peer)
		go s.receiveLoop()
	})
}

// Stop - closes the socket, a blocked read returns at once. Safe to call many times from any goroutine
func (s *Session) Stop() {
	s.closeConn(reasonAborted)
}

// SendControlByte - writes exactly one byte to the instrument
func (s *Session) SendControlByte(b byte) error {
	s.wmtx.Lock()
	defer s.wmtx.Unlock()
	if s.IsTerminated() {
		return ErrNotConnected
	}
	if _, err := s.conn.Write([]byte{b}); err != nil {
		s.st.WriteErrors.Inc()
		log.Warningf("Session %d write failed: %v", s.ID, err)
		s.closeConn(fmt.Sprintf("Write failed: %v", err))
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	s.controlBytes.Inc()
	s.st.ControlBytesSent.Inc()
	log.Debugf("Session %d control byte %s sent", s.ID, parser.FormatControlByte(b))
	return nil
}

func (s *Session) closeConn(reason string) {
	s.mtx.Lock()
	if s.terminated {
		s.mtx.Unlock()
		return
	}
	s.terminated = true
	s.reason = reason
	s.mtx.Unlock()
	if err := s.conn.Close(); err != nil {
		log.Debugf("Session %d close: %v", s.ID, err)
	}
}

func (s *Session) closedReason() (string, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.reason, s.reason != ""
}

func (s *Session) receiveLoop() {
	defer close(s.done)
	reason := s.readFrames()
	s.closeConn(reason)
	log.Infof("Session %d with %s finished: %s", s.ID, s.peer, reason)
	s.sink.Status(reason)
	s.sink.Samples(dto.SampleBatch{})
	if s.onEnd != nil {
		s.onEnd(s, s.record(reason))
	}
}

// readFrames - returns the status line of the session end
func (s *Session) readFrames() string {
	buf := make([]byte, dto.FrameSize)
	for {
		if _, err := io.ReadFull(s.conn, buf); err != nil {
			return s.readFailure(err)
		}
		f, err := parser.DecodeSampleFrame(buf)
		if err != nil {
			s.decodeErrors.Inc()
			s.st.DecodeErrors.Inc()
			s.sink.Status(fmt.Sprintf("Error decoding data: %v", err))
			continue
		}
		seq := s.frames.Inc()
		s.st.FramesReceived.Inc()
		s.sink.Samples(f.Batch(seq))
	}
}

func (s *Session) readFailure(err error) string {
	if reason, closed := s.closedReason(); closed {
		return reason
	}
	switch {
	case errors.Is(err, io.EOF):
		return reasonDisconnected
	case errors.Is(err, io.ErrUnexpectedEOF):
		// peer left in the middle of a frame
		s.decodeErrors.Inc()
		s.st.DecodeErrors.Inc()
		s.sink.Status(fmt.Sprintf("Error decoding data: %v", parser.ErrShortFrame))
		return reasonDisconnected
	case errors.Is(err, syscall.ECONNRESET):
		return reasonReset
	case errors.Is(err, net.ErrClosed):
		return reasonAborted
	}
	log.Warningf("Session %d read failed: %v", s.ID, err)
	return fmt.Sprintf("Connection error: %v", err)
}

func (s *Session) record(reason string) dto.SessionRecord {
	finished := time.Now()
	return dto.SessionRecord{
		ID:           uint64(s.ID),
		Peer:         s.peer,
		Started:      s.started,
		Finished:     finished,
		Duration:     finished.Sub(s.started),
		Frames:       s.frames.Load(),
		DecodeErrors: s.decodeErrors.Load(),
		ControlBytes: s.controlBytes.Load(),
		BytesIn:      s.conn.received.Load(),
		BytesOut:     s.conn.transmitted.Load(),
		Reason:       reason,
	}
}
