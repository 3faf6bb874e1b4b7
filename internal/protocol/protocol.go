// Package protocol holds what the relay and its clients agree on: routes,
// field names and the JSON bodies exchanged.
package protocol

const (
	DefaultPort = 3020

	// Routes
	RouteUpload     = "/filtered-data"
	RouteDelete     = "/delete-kml"
	RouteFormFilter = "/handle-form-filter"
	RouteStatus     = "/status"
	UploadsPrefix   = "/uploads/"

	// FileField is the multipart field carrying the KML file.
	FileField = "kmlFile"
	// URLField is the delete body's field naming the file URL.
	URLField = "kmlFileUrl"
)

// Response messages
const (
	MsgNoFile          = "No file received"
	MsgTooLarge        = "File too large"
	MsgNoSpace         = "Insufficient storage"
	MsgSaveFailed      = "Error saving the file"
	MsgTunnelFailed    = "Error fetching ngrok tunnels"
	MsgSaved           = "KML file received and saved"
	MsgNoURL           = "No URL provided"
	MsgBadURL          = "Invalid file URL"
	MsgDeleteFailed    = "Error deleting the file"
	MsgDeleted         = "KML file deleted successfully"
	MsgFormReceived    = "Form data received"
	MsgStatusFailed    = "Error reading upload directory"
	MsgMalformedUpload = "Malformed upload"
)

// Message is the body of every reply that carries nothing else.
type Message struct {
	Message string `json:"message"`
}

// UploadResponse is returned by a successful upload.
type UploadResponse struct {
	Message string `json:"message"`
	FileURL string `json:"fileUrl"`
}

// DeleteRequest names the file to remove by the URL the upload returned.
type DeleteRequest struct {
	KMLFileURL string `json:"kmlFileUrl"`
}

// FormFilterRequest is the body accepted by the form-intake deployment.
type FormFilterRequest struct {
	Difficulty string `json:"input_difficulty"`
	Prefecture string `json:"input_prefecture"`
}

// StatusResponse reports the state of the upload root.
type StatusResponse struct {
	Files      int    `json:"files"`
	FreeBytes  uint64 `json:"freeBytes"`
	TotalBytes uint64 `json:"totalBytes"`
}
