package handler

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"kml-relay/internal/log"
	"kml-relay/internal/protocol"
)

// NewRouter mounts the relay endpoints and the static file server.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc(protocol.RouteUpload, h.Upload).Methods(http.MethodPost)
	r.HandleFunc(protocol.RouteDelete, h.Delete).Methods(http.MethodPost)
	r.HandleFunc(protocol.RouteStatus, h.Status).Methods(http.MethodGet)

	r.PathPrefix(protocol.UploadsPrefix).
		Handler(http.StripPrefix(protocol.UploadsPrefix, http.FileServer(h.store.FileSystem()))).
		Methods(http.MethodGet, http.MethodHead)

	return r
}

// NewFormFilterRouter mounts the form-intake endpoint alone.
func NewFormFilterRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(protocol.RouteFormFilter, FormFilter).Methods(http.MethodPost)
	return r
}

// Wrap adds open CORS, panic recovery and an access log in front of next.
func Wrap(next http.Handler) http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CombinedLoggingHandler(log.Writer(), recovery(cors(next)))
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error(v...)
}
