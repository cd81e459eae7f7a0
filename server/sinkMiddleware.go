package server

import (
	"sync"

	"github.com/blabu/nanoporeLinkService/dto"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
)

type nopSink struct{}

func (nopSink) Status(string)                  {}
func (nopSink) Samples(dto.SampleBatch)        {}
func (nopSink) SessionEnded(dto.SessionRecord) {}

type panicCover struct {
	base StatusSink
}

// CreatePanicCoverSink - a panic inside the observer is logged and does not kill the receive loop
func CreatePanicCoverSink(base StatusSink) StatusSink {
	if p, ok := base.(panicCover); ok {
		return p
	}
	return panicCover{base}
}

func (p panicCover) cover() {
	if err := recover(); err != nil {
		log.Errorf("PANIC in status sink %v", err)
	}
}

func (p panicCover) Status(msg string) {
	defer p.cover()
	p.base.Status(msg)
}

func (p panicCover) Samples(batch dto.SampleBatch) {
	defer p.cover()
	p.base.Samples(batch)
}

func (p panicCover) SessionEnded(rec dto.SessionRecord) {
	defer p.cover()
	p.base.SessionEnded(rec)
}

type fanOut []StatusSink

// FanOutSink - delivers every event to all sinks in the given order
func FanOutSink(sinks ...StatusSink) StatusSink {
	res := make(fanOut, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			res = append(res, CreatePanicCoverSink(s))
		}
	}
	return res
}

func (f fanOut) Status(msg string) {
	for _, s := range f {
		s.Status(msg)
	}
}

func (f fanOut) Samples(batch dto.SampleBatch) {
	for _, s := range f {
		s.Samples(batch)
	}
}

func (f fanOut) SessionEnded(rec dto.SessionRecord) {
	for _, s := range f {
		s.SessionEnded(rec)
	}
}

/*
PanelSink - the panel gets every event synchronously, so its state is current
when a Start or SendControlVector call returns. The slow sinks share one queue.
The returned QueueSink must be closed after the listener has stopped
*/
func PanelSink(panel StatusSink, queueSize int, slow ...StatusSink) (StatusSink, *QueueSink) {
	q := NonBlockingSink(FanOutSink(slow...), queueSize)
	return FanOutSink(panel, q), q
}

// LogSink - writes status lines and session summaries into the log
type LogSink struct{}

func (LogSink) Status(msg string) {
	log.Info(msg)
}

func (LogSink) Samples(batch dto.SampleBatch) {
	if !batch.IsEmpty() {
		log.Tracef("Frame %d received", batch.Seq)
	}
}

func (LogSink) SessionEnded(rec dto.SessionRecord) {
	log.Infof("Session with %s lasted %v, frames %d, decode errors %d, control bytes %d",
		rec.Peer, rec.Duration, rec.Frames, rec.DecodeErrors, rec.ControlBytes)
}

type sinkEvent struct {
	status  *string
	batch   *dto.SampleBatch
	session *dto.SessionRecord
}

// QueueSink - see NonBlockingSink
type QueueSink struct {
	base   StatusSink
	events chan sinkEvent
	mtx    sync.RWMutex
	closed bool
	done   chan struct{}
}

// NonBlockingSink - decouples the receive loop from a slow observer.
// Events are delivered in order by one goroutine; a full queue blocks the producer, nothing is dropped
func NonBlockingSink(base StatusSink, bufSize int) *QueueSink {
	if bufSize < 1 {
		bufSize = 1
	}
	q := &QueueSink{
		base:   CreatePanicCoverSink(base),
		events: make(chan sinkEvent, bufSize),
		done:   make(chan struct{}),
	}
	go q.deliver()
	return q
}

func (q *QueueSink) deliver() {
	defer close(q.done)
	for e := range q.events {
		switch {
		case e.status != nil:
			q.base.Status(*e.status)
		case e.batch != nil:
			q.base.Samples(*e.batch)
		case e.session != nil:
			q.base.SessionEnded(*e.session)
		}
	}
}

func (q *QueueSink) push(e sinkEvent) {
	q.mtx.RLock()
	defer q.mtx.RUnlock()
	if q.closed {
		return
	}
	q.events <- e
}

func (q *QueueSink) Status(msg string) {
	q.push(sinkEvent{status: &msg})
}

func (q *QueueSink) Samples(batch dto.SampleBatch) {
	q.push(sinkEvent{batch: &batch})
}

func (q *QueueSink) SessionEnded(rec dto.SessionRecord) {
	q.push(sinkEvent{session: &rec})
}

// Close - delivers what is queued and stops; later events are dropped
func (q *QueueSink) Close() error {
	q.mtx.Lock()
	if q.closed {
		q.mtx.Unlock()
		<-q.done
		return nil
	}
	q.closed = true
	close(q.events)
	q.mtx.Unlock()
	<-q.done
	return nil
}
