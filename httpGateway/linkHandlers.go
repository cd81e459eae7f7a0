package httpGateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/blabu/nanoporeLinkService/dto"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
	"github.com/blabu/nanoporeLinkService/parser"
	"github.com/blabu/nanoporeLinkService/server"
)

const defaultSessionsLimit = 20

// LinkStatus - answer of the status url
type LinkStatus struct {
	State         string            `json:"state"`
	Host          string            `json:"host"`
	Port          string            `json:"port"`
	Addr          string            `json:"addr,omitempty"`
	Peer          string            `json:"peer,omitempty"`
	Message       string            `json:"message"`
	ControlBits   dto.ControlVector `json:"controlBits"`
	SentControl   dto.ControlVector `json:"sentControl"`
	FramesPerLink uint64            `json:"framesReceived"`
}

type endpointRequest struct {
	Host string `json:"host"`
	Port string `json:"port"`
}

type controlRequest struct {
	Bits dto.ControlVector `json:"bits"`
}

func (g *Gateway) status() LinkStatus {
	host, port := g.panel.Endpoint()
	res := LinkStatus{
		State:         g.link.State().String(),
		Host:          host,
		Port:          port,
		Peer:          g.link.ActivePeer(),
		Message:       g.panel.Message(),
		ControlBits:   g.panel.ControlBits(),
		SentControl:   g.link.ControlVector(),
		FramesPerLink: g.link.Statistics().FramesReceived.Load(),
	}
	if addr := g.link.Addr(); addr != nil {
		res.Addr = addr.String()
	}
	return res
}

// decodeBody - empty body is not an error
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

func (g *Gateway) getServerStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(g.link.Statistics().GetJsonStat())
}

func (g *Gateway) getLinkStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.status())
}

/*
Body is optional, absent fields are taken from the panel context
curl -X POST http://localhost:6060/api/v1/listener/start -d '{"host":"0.0.0.0","port":"8888"}'
*/
func (g *Gateway) startListener(w http.ResponseWriter, r *http.Request) {
	var req endpointRequest
	if err := decodeBody(r, &req); err != nil {
		httpError{statusCode: http.StatusBadRequest, err: fmt.Errorf("Incorrect body: %v", err)}.ServeHTTP(w, r)
		return
	}
	host, port := g.panel.Endpoint()
	if req.Host != "" {
		host = req.Host
	}
	if req.Port != "" {
		port = req.Port
	}
	err := g.link.Start(host, port)
	switch {
	case err == nil:
		g.panel.SetEndpoint(host, port)
		writeJSON(w, http.StatusOK, g.status())
	case errors.Is(err, server.ErrInvalidEndpoint):
		httpError{statusCode: http.StatusBadRequest, err: err}.ServeHTTP(w, r)
	case errors.Is(err, server.ErrAlreadyRunning):
		httpError{statusCode: http.StatusConflict, err: err}.ServeHTTP(w, r)
	default:
		log.Warning(err.Error())
		httpError{statusCode: http.StatusInternalServerError, err: err}.ServeHTTP(w, r)
	}
}

func (g *Gateway) stopListener(w http.ResponseWriter, r *http.Request) {
	g.link.Stop()
	writeJSON(w, http.StatusOK, g.status())
}

/*
curl -X POST http://localhost:6060/api/v1/control -d '{"bits":[1,0,1,0,1,0,1,0]}'
*/
func (g *Gateway) sendControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := decodeBody(r, &req); err != nil {
		httpError{statusCode: http.StatusBadRequest, err: fmt.Errorf("Incorrect body: %v", err)}.ServeHTTP(w, r)
		return
	}
	if err := g.panel.SetControlBits(req.Bits); err != nil {
		httpError{statusCode: http.StatusBadRequest, err: err}.ServeHTTP(w, r)
		return
	}
	err := g.link.SendControlVector(req.Bits)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, g.status())
	case errors.Is(err, parser.ErrInvalidControlVector):
		httpError{statusCode: http.StatusBadRequest, err: err}.ServeHTTP(w, r)
	case errors.Is(err, server.ErrNotConnected):
		httpError{statusCode: http.StatusConflict, err: err}.ServeHTTP(w, r)
	default:
		httpError{statusCode: http.StatusBadGateway, err: err}.ServeHTTP(w, r)
	}
}

func (g *Gateway) getSamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, g.panel.LastBatch())
}

/*
limit - count of the newest sessions (20 by default)
*/
func (g *Gateway) getSessions(w http.ResponseWriter, r *http.Request) {
	if g.journal == nil {
		httpError{statusCode: http.StatusNotFound, err: errors.New("Session journal is disabled")}.ServeHTTP(w, r)
		return
	}
	limit := defaultSessionsLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		v, err := strconv.Atoi(l)
		if err != nil || v < 0 {
			httpError{statusCode: http.StatusBadRequest, err: errors.New("limit must be a positive number")}.ServeHTTP(w, r)
			return
		}
		limit = v
	}
	res, err := g.journal.Last(limit)
	if err != nil {
		httpError{statusCode: http.StatusInternalServerError, err: err}.ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (g *Gateway) getSession(w http.ResponseWriter, r *http.Request) {
	if g.journal == nil {
		httpError{statusCode: http.StatusNotFound, err: errors.New("Session journal is disabled")}.ServeHTTP(w, r)
		return
	}
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httpError{statusCode: http.StatusBadRequest, err: err}.ServeHTTP(w, r)
		return
	}
	rec, err := g.journal.Get(id)
	if err != nil {
		httpError{statusCode: http.StatusNotFound, err: err}.ServeHTTP(w, r)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
