// Package client talks to a running relay: it uploads KML files, deletes
// them by URL and fetches them back.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"kml-relay/internal/protocol"
	"kml-relay/internal/ui"
)

// Client is bound to one relay base URL such as http://localhost:3020.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Progress receives transfer bars; nil disables them.
	Progress io.Writer
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

// StatusError is returned for any non-200 reply.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay answered %d", e.Code)
	}
	return fmt.Sprintf("relay answered %d: %s", e.Code, e.Message)
}

// UploadFile uploads the file at path and returns its public URL.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", err
	}
	return c.Upload(ctx, filepath.Base(path), f, st.Size())
}

// Upload sends r as the kmlFile field under the given client-side name.
// The multipart body is streamed; size only drives the progress bar.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		fw, err := mw.CreateFormFile(protocol.FileField, name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(fw, ui.NewProgressReader(r, size, c.Progress)); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+protocol.RouteUpload, pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out protocol.UploadResponse
	if err := c.do(req, &out); err != nil {
		return "", errors.Wrap(err, "upload")
	}
	return out.FileURL, nil
}

// Delete asks the relay to remove the file behind fileURL.
func (c *Client) Delete(ctx context.Context, fileURL string) (string, error) {
	body, err := json.Marshal(protocol.DeleteRequest{KMLFileURL: fileURL})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+protocol.RouteDelete, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out protocol.Message
	if err := c.do(req, &out); err != nil {
		return "", errors.Wrap(err, "delete")
	}
	return out.Message, nil
}

// Fetch downloads fileURL into w and returns the number of bytes copied.
func (c *Client) Fetch(ctx context.Context, fileURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "fetch")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{Code: resp.StatusCode}
	}
	return io.Copy(ui.NewProgressWriter(w, resp.ContentLength, c.Progress), resp.Body)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var msg protocol.Message
		json.NewDecoder(resp.Body).Decode(&msg)
		return &StatusError{Code: resp.StatusCode, Message: msg.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
