/*
instrumentsim - bench simulator of the nanopore instrument.
Connects to the link service, streams synthetic frames and prints received control bytes
*/
package main

import (
	"errors"
	"flag"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/atomic"

	"github.com/blabu/nanoporeLinkService/connector"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
	"github.com/blabu/nanoporeLinkService/parser"
)

var (
	address  = flag.String("addr", "127.0.0.1:8888", "Address of the link service")
	period   = flag.Duration("period", 100*time.Millisecond, "Period between frames")
	count    = flag.Int("count", 0, "Frames to send, 0 sends until interrupted")
	bitOrder = flag.String("order", parser.MSBFirst.String(), "Control bit order (msb-first or lsb-first)")
	verbose  = flag.Bool("v", false, "Debug output")
)

func readControl(con *connector.Connection, stoped *atomic.Bool) {
	for !stoped.Load() {
		bits, b, err := con.ReadControl(0)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !stoped.Load() && !errors.Is(err, io.EOF) {
				log.Warningf("Read control failed: %v", err)
			}
			return
		}
		log.Infof("Control byte %s bits %v", parser.FormatControlByte(b), bits)
	}
}

func main() {
	flag.Parse()
	log.SetVerbose(*verbose)
	order, err := parser.ParseBitOrder(*bitOrder)
	if err != nil {
		log.Fatal(err.Error())
	}
	con, err := connector.NewInstrumentConnection(connector.ConfConnection{Address: *address, BitOrder: order})
	if err != nil {
		log.Fatal(err.Error())
	}
	log.Infof("Connected to %s from %s", *address, con.LocalAddr())

	stoped := atomic.NewBool(false)
	sent := atomic.NewUint64(0)
	go readControl(con, stoped)

	sigTerm := make(chan os.Signal, 1)
	signal.Notify(sigTerm, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(*period)
	defer ticker.Stop()
	var t0 int16
loop:
	for *count == 0 || sent.Load() < uint64(*count) {
		select {
		case <-sigTerm:
			break loop
		case <-ticker.C:
			if err := con.SendFrame(connector.SyntheticFrame(t0)); err != nil {
				log.Errorf("Send frame failed: %v", err)
				break loop
			}
			t0 += 16
			n := sent.Inc()
			log.Debugf("Frame %d sent", n)
		}
	}
	stoped.Store(true)
	con.Close()
	log.Infof("Finish simulator, %d frames sent", sent.Load())
}
