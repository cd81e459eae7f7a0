package httpGateway

import (
	"encoding/json"
	"net/http"

	log "github.com/blabu/nanoporeLinkService/logWrapper"
)

type httpError struct {
	statusCode int
	err        error
}

func (h httpError) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, er := json.Marshal(map[string]string{"error": h.err.Error()})
	if er != nil {
		log.Error(er.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(h.statusCode)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		httpError{statusCode: http.StatusInternalServerError, err: err}.ServeHTTP(w, nil)
		return
	}
	w.Header().Add("Access-Control-Allow-Origin", "*")
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
