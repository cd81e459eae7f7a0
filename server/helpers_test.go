package server

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blabu/nanoporeLinkService/connector"
	"github.com/blabu/nanoporeLinkService/dto"
)

const waitTimeout = 5 * time.Second

type recordingSink struct {
	mtx      sync.Mutex
	statuses []string
	batches  chan dto.SampleBatch
	ended    chan dto.SessionRecord
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		batches: make(chan dto.SampleBatch, 1024),
		ended:   make(chan dto.SessionRecord, 16),
	}
}

func (r *recordingSink) Status(msg string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.statuses = append(r.statuses, msg)
}

func (r *recordingSink) Samples(batch dto.SampleBatch) {
	r.batches <- batch
}

func (r *recordingSink) SessionEnded(rec dto.SessionRecord) {
	r.ended <- rec
}

func (r *recordingSink) hasStatus(prefix string) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, s := range r.statuses {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func (r *recordingSink) lastStatus() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

// nextBatch - skips terminal markers when wantData is set
func (r *recordingSink) nextBatch(t *testing.T, wantData bool) dto.SampleBatch {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case b := <-r.batches:
			if wantData && b.IsEmpty() {
				continue
			}
			return b
		case <-deadline:
			t.Fatal("no sample batch received")
			return dto.SampleBatch{}
		}
	}
}

func (r *recordingSink) nextEnded(t *testing.T) dto.SessionRecord {
	t.Helper()
	select {
	case rec := <-r.ended:
		return rec
	case <-time.After(waitTimeout):
		t.Fatal("session end not reported")
		return dto.SessionRecord{}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startListener(t *testing.T, sink StatusSink) *ListenerService {
	t.Helper()
	l := NewListenerService(ListenerConfig{Sink: sink})
	if err := l.Start("127.0.0.1", "0"); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		l.Stop()
		l.Wait(waitTimeout)
	})
	return l
}

func dial(t *testing.T, l *ListenerService) *connector.Connection {
	t.Helper()
	c, err := connector.NewInstrumentConnection(connector.ConfConnection{Address: l.Addr().String()})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func sequentialFrame() dto.SampleFrame {
	var f dto.SampleFrame
	for i := range f {
		f[i] = int16(i)
	}
	return f
}
