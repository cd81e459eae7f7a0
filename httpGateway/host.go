/*
Package httpGateway - HTTP API of the control panel.
The panel sets host, port and control bits here and polls status lines and samples
*/
package httpGateway

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/blabu/nanoporeLinkService/data"
	"github.com/blabu/nanoporeLinkService/dto"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
	"github.com/blabu/nanoporeLinkService/panel"
	"github.com/blabu/nanoporeLinkService/server"
	"github.com/blabu/nanoporeLinkService/stat"
)

// Link - operations of the listener service used by the gateway
type Link interface {
	Start(host, port string) error
	Stop()
	SendControlVector(bits dto.ControlVector) error
	State() server.State
	Addr() net.Addr
	ActivePeer() string
	ControlVector() dto.ControlVector
	Statistics() *stat.Statistics
}

// Gateway - handlers of the panel API
type Gateway struct {
	link    Link
	panel   *panel.Context
	journal data.ISessionJournal
}

// NewGateway - journal may be nil
func NewGateway(link Link, ctx *panel.Context, journal data.ISessionJournal) *Gateway {
	return &Gateway{link: link, panel: ctx, journal: journal}
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Allow", http.MethodGet)
	w.Header().Add("Allow", http.MethodPost)
	w.Header().Add("Allow", http.MethodOptions)
	w.Header().Add("Access-Control-Allow-Methods", http.MethodGet)
	w.Header().Add("Access-Control-Allow-Methods", http.MethodPost)
	w.Header().Add("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
}

// Router - all routes of the gateway
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.Methods(http.MethodOptions).HandlerFunc(optionsHandler)
	r.Methods(http.MethodGet).Path(internalStatus).HandlerFunc(g.getServerStatus)
	r.Methods(http.MethodGet).Path(linkStatus).HandlerFunc(g.getLinkStatus)
	r.Methods(http.MethodPost).Path(listenerStart).HandlerFunc(g.startListener)
	r.Methods(http.MethodPost).Path(listenerStop).HandlerFunc(g.stopListener)
	r.Methods(http.MethodPost).Path(control).HandlerFunc(g.sendControl)
	r.Methods(http.MethodGet).Path(samples).HandlerFunc(g.getSamples)
	r.Methods(http.MethodGet).Path(sessions).HandlerFunc(g.getSessions)
	r.Methods(http.MethodGet).Path(sessions + "/{id:[0-9]+}").HandlerFunc(g.getSession)
	r.MethodNotAllowedHandler = httpError{err: errors.New("Method not allowed. Sorry"), statusCode: http.StatusMethodNotAllowed}
	r.NotFoundHandler = httpError{err: errors.New("Method not exist. Sorry"), statusCode: http.StatusNotFound}
	return r
}

/*
RunGateway - starts the panel API on address.
Returns the server so the caller can shut it down
*/
func RunGateway(address string, g *Gateway) (*http.Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	log.Info("Start http gateway on ", ln.Addr().String())
	gateway := &http.Server{
		Handler:     g.Router(),
		Addr:        address,
		ReadTimeout: 60 * time.Second,
	}
	go func() {
		if err := gateway.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error(err.Error())
		}
	}()
	return gateway, nil
}
