package web

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/logging"
)

// multipartOverhead is the slack allowed on top of the file size limit for
// multipart boundaries and form fields. The file itself is held to the exact
// limit while it is read.
const multipartOverhead = 1 << 20

// multipartMemory is how much of a multipart form is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// handleUpload parses a CSV upload, caches it and returns its summary.
//
// The multipart field is "file". Setting the form field "preview" to 1
// includes the first page of rows in the response. HTMX requests are
// additionally redirected to the table view.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.service.MaxUploadSize()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			s.respondError(w, r, core.FileTooLargeError(limit), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isCSVUpload(header.Filename, header.Header.Get("Content-Type")) {
		s.respondError(w, r, errOnlyCSV, http.StatusBadRequest)
		return
	}

	opts := core.IngestOptions{}
	if preview := r.FormValue("preview"); preview == "1" || preview == "true" {
		opts.PreviewRows = s.cfg.Query.DefaultPageSize
	}

	logging.WithFields(r.Context(), "file", header.Filename).Debug("upload received", "bytes", header.Size)

	summary, err := s.service.Ingest(WithRequestMetadata(r.Context(), r), header.Filename, file, opts)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/view/"+summary.ID)
	}
	writeJSON(w, http.StatusOK, summary)
}

// isCSVUpload accepts a .csv file name or a text/csv content type.
func isCSVUpload(name, contentType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/csv"
}

// handleUploadQueueStatus returns the current state of the upload limiter.
// Used for monitoring and to check if the system can accept more uploads.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.UploadLimiterStatus())
}
