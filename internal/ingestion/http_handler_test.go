package ingestion

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func multipartUpload(t *testing.T, payload []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if payload != nil {
		part, err := writer.CreateFormFile("excelFile", "tally.xlsx")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(payload); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadHandlerHappyPath(t *testing.T) {
	repo := &stubRepo{}
	handler := NewHTTPHandler(newTestService(repo, &stubArchiver{}))

	payload := buildTallySheet(t, "JSON", [][]any{{"Beds", 12, 1}})
	body, contentType := multipartUpload(t, payload, map[string]string{
		"shelter":   "North",
		"dateOfRpt": "2025-01-10",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/upload-excel", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.SkippedRows != 0 || len(summary.Preview) != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
}

func TestUploadHandlerMissingFile(t *testing.T) {
	handler := NewHTTPHandler(newTestService(&stubRepo{}, &stubArchiver{}))

	body, contentType := multipartUpload(t, nil, map[string]string{
		"shelter":   "North",
		"dateOfRpt": "2025-01-10",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload-excel", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected error message in body")
	}
}

func TestUploadHandlerMissingShelter(t *testing.T) {
	handler := NewHTTPHandler(newTestService(&stubRepo{}, &stubArchiver{}))

	payload := buildTallySheet(t, "JSON", [][]any{{"Beds", 12, 1}})
	body, contentType := multipartUpload(t, payload, map[string]string{
		"dateOfRpt": "2025-01-10",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/upload-excel", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUploadHandlerRejectsGet(t *testing.T) {
	handler := NewHTTPHandler(newTestService(&stubRepo{}, &stubArchiver{}))

	req := httptest.NewRequest(http.MethodGet, "/api/upload-excel", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
