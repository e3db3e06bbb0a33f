package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccsdpt/hisweb/internal/domain"
)

// Handler serves the download endpoint and the fixed template file.
type Handler struct {
	service      *Service
	templatePath string
}

// NewHTTPHandler wraps the service with the download endpoints.
func NewHTTPHandler(service *Service, templatePath string) http.Handler {
	return &Handler{service: service, templatePath: templatePath}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/download-template"):
		h.handleTemplate(w, r)
	case r.Method == http.MethodPost:
		h.handleDownload(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid payload: %v", err))
		return
	}

	file, err := h.service.Export(r.Context(), req)
	if err != nil {
		writeError(w, domain.HTTPStatus(err), domain.ClientMessage(err))
		return
	}

	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	_, _ = w.Write(file.Content)
}

// handleTemplate streams the pre-existing template workbook. The bytes are
// read fresh from disk each time, so repeated downloads are identical.
func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	content, err := os.ReadFile(h.templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "template file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read template: %v", err))
		return
	}

	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(h.templatePath)))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write(content)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
