package ingestion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ccsdpt/hisweb/internal/domain"
)

// Handler exposes the upload flow as an HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a POST endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form data: %v", err))
		return
	}

	file, _, err := r.FormFile("excelFile")
	if err != nil {
		writeError(w, http.StatusBadRequest, `no file uploaded, field name must be "excelFile"`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to read file: %v", err))
		return
	}

	req := Request{
		Shelter:   r.FormValue("shelter"),
		DateOfRpt: r.FormValue("dateOfRpt"),
		Data:      bytes.NewReader(data),
	}

	summary, err := h.service.Upload(r.Context(), req)
	if err != nil {
		writeError(w, domain.HTTPStatus(err), domain.ClientMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, summary)
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
