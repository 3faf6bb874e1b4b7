// Package handler implements the relay's HTTP endpoints.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"kml-relay/internal/config"
	"kml-relay/internal/discovery"
	"kml-relay/internal/log"
	"kml-relay/internal/protocol"
	"kml-relay/internal/security"
	"kml-relay/internal/storage"
)

const (
	// multipart parts above this size spill to temporary files
	multipartMemory = 10 << 20
	maxJSONBody     = 1 << 20
)

// Handler serves uploads, deletions and status for one upload root.
type Handler struct {
	store    *storage.Store
	resolver discovery.Resolver

	maxUploadBytes int64
	minFreeBytes   uint64
	tunnelTimeout  time.Duration
}

type Option func(*Handler)

// WithLimits sets the largest accepted request body and the free space the
// upload root must keep. Zero leaves the respective limit off.
func WithLimits(maxUploadBytes int64, minFreeBytes uint64) Option {
	return func(h *Handler) {
		h.maxUploadBytes = maxUploadBytes
		h.minFreeBytes = minFreeBytes
	}
}

// WithTunnelTimeout bounds the public URL lookup done after each upload.
func WithTunnelTimeout(d time.Duration) Option {
	return func(h *Handler) { h.tunnelTimeout = d }
}

func New(store *storage.Store, resolver discovery.Resolver, opts ...Option) *Handler {
	h := &Handler{
		store:          store,
		resolver:       resolver,
		maxUploadBytes: config.DefaultMaxUploadBytes,
		tunnelTimeout:  config.DefaultTunnelTimeout,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// FromConfig wires a Handler from the process configuration.
func FromConfig(c config.Config, store *storage.Store, resolver discovery.Resolver) *Handler {
	return New(store, resolver,
		WithLimits(c.MaxUploadBytes, c.MinFreeBytes),
		WithTunnelTimeout(c.TunnelTimeout),
	)
}

// Upload stores the multipart field kmlFile and replies with its public URL.
//
// The stored file is kept even when the public URL cannot be determined.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log.Info("Received POST request")

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			log.Errorf("Upload rejected: %v", err)
			writeMessage(w, http.StatusRequestEntityTooLarge, protocol.MsgTooLarge)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			log.Info("Received file: No file received")
			writeMessage(w, http.StatusBadRequest, protocol.MsgNoFile)
		default:
			log.Errorf("Error parsing upload: %v", err)
			writeMessage(w, http.StatusBadRequest, protocol.MsgMalformedUpload)
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(protocol.FileField)
	if err != nil {
		log.Info("Received file: No file received")
		writeMessage(w, http.StatusBadRequest, protocol.MsgNoFile)
		return
	}
	defer file.Close()
	log.Infof("Received file: %s (%d bytes)", displayName(header.Filename), header.Size)

	if h.minFreeBytes > 0 {
		free, err := h.store.Free()
		if err != nil {
			log.Errorf("Error reading free space: %v", err)
			writeMessage(w, http.StatusInternalServerError, protocol.MsgSaveFailed)
			return
		}
		if free < h.minFreeBytes {
			log.Errorf("Upload refused: %d bytes free, %d required", free, h.minFreeBytes)
			writeMessage(w, http.StatusInsufficientStorage, protocol.MsgNoSpace)
			return
		}
	}

	stored, err := h.store.Save(file)
	if err != nil {
		log.Errorf("Error saving the file: %v", err)
		writeMessage(w, http.StatusInternalServerError, protocol.MsgSaveFailed)
		return
	}
	log.Infof("File saved successfully: %s (%d bytes, sha256 %s)", stored.Name, stored.Size, stored.Hash())

	ctx := r.Context()
	if h.tunnelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.tunnelTimeout)
		defer cancel()
	}
	base, err := h.resolver.ResolvePublicBaseURL(ctx)
	if err != nil {
		log.Errorf("Error fetching ngrok tunnels: %v (left %s in place)", err, stored.Name)
		writeMessage(w, http.StatusInternalServerError, protocol.MsgTunnelFailed)
		return
	}

	fileURL := strings.TrimRight(base, "/") + protocol.UploadsPrefix + stored.Name
	log.Infof("Saved file url: %s", fileURL)
	writeJSON(w, http.StatusOK, protocol.UploadResponse{
		Message: protocol.MsgSaved,
		FileURL: fileURL,
	})
}

// Delete removes the file named by the last path segment of kmlFileUrl.
// Any caller that knows a file's URL may delete it.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log.Info("Received DELETE request for KML file")

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	raw := deleteURL(r)
	log.Debugf("Request body: kmlFileUrl=%q", raw)
	if raw == "" {
		writeMessage(w, http.StatusBadRequest, protocol.MsgNoURL)
		return
	}

	name, err := security.NameFromURL(raw)
	if err != nil {
		log.Errorf("Error handling delete request: %v", err)
		writeMessage(w, http.StatusBadRequest, protocol.MsgBadURL)
		return
	}

	if err := h.store.Remove(name); err != nil {
		if errors.Is(err, security.ErrOutsideRoot) {
			log.Errorf("Error handling delete request: %v", err)
			writeMessage(w, http.StatusBadRequest, protocol.MsgBadURL)
			return
		}
		log.Errorf("Error deleting the file: %v", err)
		writeMessage(w, http.StatusInternalServerError, protocol.MsgDeleteFailed)
		return
	}

	log.Infof("File deleted successfully: %s", name)
	writeMessage(w, http.StatusOK, protocol.MsgDeleted)
}

// deleteURL reads kmlFileUrl from a JSON or url-encoded body.
// Undecodable bodies yield an empty string.
func deleteURL(r *http.Request) string {
	ctype := r.Header.Get("Content-Type")
	if strings.HasPrefix(ctype, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			log.Errorf("Error parsing form body: %v", err)
			return ""
		}
		return strings.TrimSpace(r.PostForm.Get(protocol.URLField))
	}

	var req protocol.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("Error decoding delete request: %v", err)
		return ""
	}
	return strings.TrimSpace(req.KMLFileURL)
}

// Status reports how many files are stored and how much space is left.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	u, err := h.store.Usage()
	if err != nil {
		log.Errorf("Error reading upload directory: %v", err)
		writeMessage(w, http.StatusInternalServerError, protocol.MsgStatusFailed)
		return
	}
	writeJSON(w, http.StatusOK, protocol.StatusResponse{
		Files:      u.Files,
		FreeBytes:  u.FreeBytes,
		TotalBytes: u.TotalBytes,
	})
}

// FormFilter logs the submitted difficulty and prefecture and acknowledges them.
func FormFilter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	var req protocol.FormFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debugf("Form body not decoded: %v", err)
	}
	log.Infof("Received form data: difficulty=%q prefecture=%q",
		displayName(req.Difficulty), displayName(req.Prefecture))
	writeMessage(w, http.StatusOK, protocol.MsgFormReceived)
}
