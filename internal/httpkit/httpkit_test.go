package httpkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWriteErr(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErr(rec, http.StatusNotFound, "NOT_FOUND", "job not found: j1", map[string]any{"id": "j1"})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if env.Error.Code != "NOT_FOUND" || env.Error.Details["id"] != "j1" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var body struct {
		VideoID string `json:"video_id"`
	}
	req := httptest.NewRequest("POST", "/video/trim", strings.NewReader(`{"video_id":"a","extra":1}`))
	if err := DecodeJSON(req, &body); err == nil {
		t.Error("expected unknown field to be rejected")
	}
}

func TestWriteAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteAttachment(rec, "video_20240101_120000.mp4", 5, strings.NewReader("bytes")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=video_20240101_120000.mp4` {
		t.Errorf("unexpected disposition %q", cd)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "" {
		t.Error("expected a content type")
	}
	if rec.Header().Get("Content-Length") != "5" || rec.Body.String() != "bytes" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(CORSOptions{AllowedOrigins: SplitOrigins(" http://a.test , ,http://b.test")})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }),
	)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{"allowed origin", "GET", "http://a.test", http.StatusTeapot, "http://a.test"},
		{"other origin", "GET", "http://evil.test", http.StatusTeapot, ""},
		{"preflight", "OPTIONS", "http://b.test", http.StatusNoContent, "http://b.test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/process/overlay", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("expected allow-origin %q, got %q", tt.wantAllow, got)
			}
		})
	}
}

func TestPgErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(wrapped) {
		t.Error("expected unique violation")
	}
	if IsUndefinedTable(wrapped) || IsForeignKeyViolation(wrapped) {
		t.Error("unexpected code match")
	}
	if !IsNoRows(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Error("expected no rows")
	}
	if IsNoRows(errors.New("other")) {
		t.Error("plain error is not no rows")
	}
}
