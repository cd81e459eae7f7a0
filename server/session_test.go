package server

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/blabu/nanoporeLinkService/dto"
	"github.com/blabu/nanoporeLinkService/parser"
	"github.com/blabu/nanoporeLinkService/stat"
)

// sessionPair - session on one side of a loopback TCP connection, raw peer on the other
func sessionPair(t *testing.T, sink StatusSink, onEnd func(*Session, dto.SessionRecord)) (*Session, *net.TCPConn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()
	peer, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { peer.Close() })
	var conn net.Conn
	select {
	case conn = <-accepted:
	case <-time.After(waitTimeout):
		t.Fatal("accept timeout")
	}
	s := NewSession(conn, sink, stat.CreateStatistics(), onEnd)
	t.Cleanup(s.Stop)
	return s, peer.(*net.TCPConn)
}

func TestSessionAccumulatesSplitFrame(t *testing.T) {
	sink := newRecordingSink()
	s, peer := sessionPair(t, sink, nil)
	s.Start()

	buf := parser.EncodeSampleFrame(sequentialFrame())
	for _, part := range [][]byte{buf[:1], buf[1:70], buf[70:159], buf[159:]} {
		if _, err := peer.Write(part); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	b := sink.nextBatch(t, true)
	if b.Seq != 1 {
		t.Fatalf("seq %d", b.Seq)
	}
	a, _ := b.Get("A")
	c, _ := b.Get("C")
	if a.Value[0] != 0 || a.Value[15] != 15 || c.Value[0] != 32 || c.Time[0] != 64 {
		t.Fatalf("unexpected batch %+v", b)
	}
}

func TestSessionBatchesInOrder(t *testing.T) {
	sink := newRecordingSink()
	s, peer := sessionPair(t, sink, nil)
	s.Start()

	var stream []byte
	for i := 0; i < 20; i++ {
		var f dto.SampleFrame
		f[0] = int16(i)
		stream = append(stream, parser.EncodeSampleFrame(f)...)
	}
	if _, err := peer.Write(stream); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		b := sink.nextBatch(t, true)
		a, _ := b.Get("A")
		if b.Seq != uint64(i+1) || a.Value[0] != int16(i) {
			t.Fatalf("batch %d out of order: seq %d value %d", i, b.Seq, a.Value[0])
		}
	}
}

func TestSessionPeerClose(t *testing.T) {
	sink := newRecordingSink()
	ended := make(chan dto.SessionRecord, 1)
	s, peer := sessionPair(t, sink, func(_ *Session, rec dto.SessionRecord) { ended <- rec })
	s.Start()

	peer.Write(parser.EncodeSampleFrame(sequentialFrame()))
	sink.nextBatch(t, true)
	peer.Close()

	select {
	case rec := <-ended:
		if rec.Reason != reasonDisconnected || rec.Frames != 1 || rec.BytesIn != dto.FrameSize {
			t.Fatalf("unexpected record %+v", rec)
		}
	case <-time.After(waitTimeout):
		t.Fatal("session did not end")
	}
	<-s.Done()
	if !s.IsTerminated() {
		t.Fatal("session not terminated")
	}
	if b := sink.nextBatch(t, false); !b.IsEmpty() {
		t.Fatalf("expected terminal marker, got %+v", b)
	}
	if err := s.SendControlByte(0x01); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSessionPartialFrameBeforeClose(t *testing.T) {
	sink := newRecordingSink()
	ended := make(chan dto.SessionRecord, 1)
	s, peer := sessionPair(t, sink, func(_ *Session, rec dto.SessionRecord) { ended <- rec })
	s.Start()

	peer.Write(make([]byte, 100))
	peer.Close()
	select {
	case rec := <-ended:
		if rec.Frames != 0 || rec.DecodeErrors != 1 {
			t.Fatalf("unexpected record %+v", rec)
		}
	case <-time.After(waitTimeout):
		t.Fatal("session did not end")
	}
	if !sink.hasStatus("Error decoding data") {
		t.Fatal("decode error not reported")
	}
}

func TestSessionPeerReset(t *testing.T) {
	sink := newRecordingSink()
	ended := make(chan dto.SessionRecord, 1)
	s, peer := sessionPair(t, sink, func(_ *Session, rec dto.SessionRecord) { ended <- rec })
	s.Start()

	peer.SetLinger(0)
	peer.Close()
	select {
	case rec := <-ended:
		if rec.Reason != reasonReset && rec.Reason != reasonDisconnected {
			t.Fatalf("unexpected reason %q", rec.Reason)
		}
	case <-time.After(waitTimeout):
		t.Fatal("session did not end")
	}
}

func TestSessionStopUnblocksRead(t *testing.T) {
	sink := newRecordingSink()
	ended := make(chan dto.SessionRecord, 1)
	s, _ := sessionPair(t, sink, func(_ *Session, rec dto.SessionRecord) { ended <- rec })
	s.Start()

	s.Stop()
	s.Stop()
	if !s.IsTerminated() {
		t.Fatal("not terminated after Stop")
	}
	select {
	case rec := <-ended:
		if rec.Reason != reasonAborted {
			t.Fatalf("unexpected reason %q", rec.Reason)
		}
	case <-time.After(waitTimeout):
		t.Fatal("receive loop still blocked")
	}
}

func TestSessionSendControlByte(t *testing.T) {
	s, peer := sessionPair(t, newRecordingSink(), nil)
	s.Start()

	for _, b := range []byte{0xAA, 0x01, 0xFF} {
		if err := s.SendControlByte(b); err != nil {
			t.Fatal(err)
		}
	}
	peer.SetReadDeadline(time.Now().Add(waitTimeout))
	got := make([]byte, 3)
	if _, err := io.ReadFull(peer, got); err != nil {
		t.Fatal(err)
	}
	if got[0] != 0xAA || got[1] != 0x01 || got[2] != 0xFF {
		t.Fatalf("unexpected bytes %x", got)
	}
	if s.st.ControlBytesSent.Load() != 3 {
		t.Fatalf("counter %d", s.st.ControlBytesSent.Load())
	}
}

type panickySink struct{ *recordingSink }

func (p panickySink) Samples(batch dto.SampleBatch) {
	p.recordingSink.Samples(batch)
	panic("observer bug")
}

func TestSessionSurvivesPanickingSink(t *testing.T) {
	sink := panickySink{newRecordingSink()}
	s, peer := sessionPair(t, sink, nil)
	s.Start()

	frame := parser.EncodeSampleFrame(sequentialFrame())
	peer.Write(frame)
	peer.Write(frame)
	sink.nextBatch(t, true)
	if b := sink.nextBatch(t, true); b.Seq != 2 {
		t.Fatalf("seq %d", b.Seq)
	}
}
