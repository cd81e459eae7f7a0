package server

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blabu/nanoporeLinkService/data"
	"github.com/blabu/nanoporeLinkService/dto"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
	"github.com/blabu/nanoporeLinkService/parser"
	"github.com/blabu/nanoporeLinkService/stat"
)

// State - state of the listener service
type State int32

const (
	StateStopped State = iota
	StateListening
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateListening:
		return "listening"
	case StateConnected:
		return "connected"
	}
	return "stopped"
}

// ListenerConfig - collaborators of the listener service, every field is optional
type ListenerConfig struct {
	Sink     StatusSink
	Stat     *stat.Statistics
	Journal  data.ISessionJournal
	BitOrder parser.BitOrder
}

/*
ListenerService - accepts instrument connections one after another.
Only one Session is alive at a time, the next connection is accepted
after the previous session has finished
*/
type ListenerService struct {
	sink    StatusSink
	st      *stat.Statistics
	journal data.ISessionJournal
	order   parser.BitOrder

	mtx     sync.Mutex
	running bool
	state   State
	ln      net.Listener
	active  *Session
	control byte
	loops   int           // accept loop and session loops alive
	idle    chan struct{} // closed when loops drops to zero
	listen  func(network, address string) (net.Listener, error)
}

func NewListenerService(cfg ListenerConfig) *ListenerService {
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.Stat == nil {
		cfg.Stat = stat.CreateStatistics()
	}
	return &ListenerService{
		sink:    CreatePanicCoverSink(cfg.Sink),
		st:      cfg.Stat,
		journal: cfg.Journal,
		order:   cfg.BitOrder,
		listen:  net.Listen,
	}
}

// loopStarted - must be called under mtx
func (l *ListenerService) loopStarted() {
	if l.loops == 0 {
		l.idle = make(chan struct{})
	}
	l.loops++
}

func (l *ListenerService) loopFinished() {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.loops--
	if l.loops == 0 {
		close(l.idle)
	}
}

// Statistics - counters of this service
func (l *ListenerService) Statistics() *stat.Statistics {
	return l.st
}

// State - current state
func (l *ListenerService) State() State {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.state
}

// Addr - bound address, nil when stopped
func (l *ListenerService) Addr() net.Addr {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// ActivePeer - address of the connected instrument or empty string
func (l *ListenerService) ActivePeer() string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.active == nil {
		return ""
	}
	return l.active.Peer()
}

// ControlVector - last valid vector requested through SendControlVector
func (l *ListenerService) ControlVector() dto.ControlVector {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return parser.UnpackControlByteOrder(l.control, l.order)
}

func (l *ListenerService) status(msg string) {
	l.sink.Status(msg)
}

// ValidateEndpoint - host must not be empty and port must be a number 0..65535
func ValidateEndpoint(host, port string) error {
	host, port = strings.TrimSpace(host), strings.TrimSpace(port)
	if host == "" || port == "" {
		return fmt.Errorf("%w: host and port are required", ErrInvalidEndpoint)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("%w: invalid port number %q", ErrInvalidEndpoint, port)
	}
	return nil
}

// Start - binds host:port and starts the accept loop. Valid only in StateStopped
func (l *ListenerService) Start(host, port string) error {
	if err := ValidateEndpoint(host, port); err != nil {
		l.status("Please set a valid host and port.")
		return err
	}
	address := net.JoinHostPort(strings.TrimSpace(host), strings.TrimSpace(port))
	l.mtx.Lock()
	if l.running {
		l.mtx.Unlock()
		return ErrAlreadyRunning
	}
	ln, err := l.listen("tcp", address)
	if err != nil {
		l.mtx.Unlock()
		log.Errorf("Can not run listener at %s %v", address, err)
		l.status(err.Error())
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	l.ln = ln
	l.running = true
	l.state = StateListening
	l.loopStarted()
	l.mtx.Unlock()

	log.Info("Start TCP server at ", ln.Addr().String())
	l.status(fmt.Sprintf("Server listening on %s", ln.Addr().String()))
	go l.acceptLoop(ln)
	return nil
}

func (l *ListenerService) isCurrent(ln net.Listener) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.running && l.ln == ln
}

func (l *ListenerService) acceptLoop(ln net.Listener) {
	defer l.loopFinished()
	for l.isCurrent(ln) {
		l.status("Waiting for connection...")
		conn, err := ln.Accept()
		if err != nil {
			if l.isCurrent(ln) {
				log.Errorf("Can not accept connection, %v", err)
				l.status(err.Error())
				l.Stop()
			}
			return
		}
		s := NewSession(conn, listenerGate{StatusSink: l.sink, l: l, ln: ln}, l.st, l.sessionEnded)
		l.mtx.Lock()
		if !l.running || l.ln != ln {
			l.mtx.Unlock()
			conn.Close()
			return
		}
		l.active = s
		l.state = StateConnected
		l.loopStarted()
		l.mtx.Unlock()

		l.st.NewConnection()
		if host, _, err := net.SplitHostPort(s.Peer()); err == nil {
			l.st.AddIPAddres(host)
		}
		l.status(fmt.Sprintf("Connection from %s", s.Peer()))
		s.Start()
		<-s.Done()
	}
}

// sessionEnded - termination hook of the active session, runs in its receive loop
func (l *ListenerService) sessionEnded(s *Session, rec dto.SessionRecord) {
	defer l.loopFinished()
	l.mtx.Lock()
	if l.active == s {
		l.active = nil
		if l.running {
			l.state = StateListening
		}
	}
	running := l.running
	l.mtx.Unlock()

	l.st.CloseConnection(rec.Duration)
	if l.journal != nil {
		if id, err := l.journal.Save(rec); err != nil {
			log.Warningf("Can not save session %d: %v", s.ID, err)
		} else {
			rec.ID = id
		}
	}
	l.sink.SessionEnded(rec)
	if running {
		l.status("Ready for a new connection.")
	}
}

/*
SendControlVector - encodes the vector and sends it to the active session.
ErrInvalidControlVector - bad input, nothing changes
ErrNotConnected - no session (advisory)
ErrWriteFailed - the session is broken, it finishes and the listener accepts again
*/
func (l *ListenerService) SendControlVector(bits dto.ControlVector) error {
	b, err := parser.EncodeControlVectorOrder(bits, l.order)
	if err != nil {
		l.status(err.Error())
		return err
	}
	l.mtx.Lock()
	l.control = b
	running, s := l.running, l.active
	l.mtx.Unlock()

	if !running {
		l.status("Server not running.")
		return ErrNotConnected
	}
	if s == nil {
		l.status("Client not connected.")
		return ErrNotConnected
	}
	if err := s.SendControlByte(b); err != nil {
		if errors.Is(err, ErrNotConnected) {
			l.status("Client not connected.")
		} else {
			l.status(err.Error())
		}
		return err
	}
	l.status(fmt.Sprintf("Sent control bits: %s", parser.FormatControlByte(b)))
	return nil
}

// Stop - closes the active session and the listening socket. Returns without waiting for the loops
func (l *ListenerService) Stop() {
	l.mtx.Lock()
	if !l.running {
		l.mtx.Unlock()
		return
	}
	l.running = false
	l.state = StateStopped
	ln, s := l.ln, l.active
	l.ln, l.active = nil, nil
	l.mtx.Unlock()

	if s != nil {
		s.Stop()
	}
	if err := ln.Close(); err != nil {
		log.Debugf("Close listener: %v", err)
	}
	l.sink.Samples(dto.SampleBatch{})
	log.Info("Server stopped")
	l.status("Server stopped.")
}

// Wait - waits until the accept loop and the session loops have finished or timeout expires
func (l *ListenerService) Wait(timeout time.Duration) bool {
	l.mtx.Lock()
	if l.loops == 0 {
		l.mtx.Unlock()
		return true
	}
	idle := l.idle
	l.mtx.Unlock()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-idle:
		return true
	case <-t.C:
		return false
	}
}

// listenerGate - status lines of a session reach the sink only while its listener is running.
// After Stop the last line is the one of the listener
type listenerGate struct {
	StatusSink
	l  *ListenerService
	ln net.Listener
}

func (g listenerGate) Status(msg string) {
	if !g.l.isCurrent(g.ln) {
		log.Debugf("Status dropped after stop: %s", msg)
		return
	}
	g.StatusSink.Status(msg)
}
