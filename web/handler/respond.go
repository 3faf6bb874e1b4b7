package handler

import (
	"net/http"

	"github.com/goccy/go-json"

	"kml-relay/internal/log"
	"kml-relay/internal/protocol"
)

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	buffer, err := json.Marshal(v)
	if err != nil {
		log.Errorf("%+v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write(buffer); err != nil {
		log.Errorf("writing response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, protocol.Message{Message: msg})
}
