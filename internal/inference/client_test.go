package inference

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"colorize/api/internal/config"
)

func testClient(baseURL string) *Client {
	return NewClient(config.InferenceConfig{
		BaseURL:         baseURL,
		ColorizeTimeout: 5 * time.Second,
		SuggestTimeout:  5 * time.Second,
		SuggestionCount: 5,
	}, zerolog.Nop())
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindOther},
		{"refused connection", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, KindConnectivity},
		{"url timeout", &url.Error{Op: "Post", URL: "http://x", Err: timeoutErr{}}, KindOther},
		{"unclassified", errors.New("boom"), KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransport(tt.err)
			if got.Kind != tt.want {
				t.Errorf("kind = %q, want %q", got.Kind, tt.want)
			}
		})
	}
}

func TestConnectivityGuidance(t *testing.T) {
	err := classifyTransport(&url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")})
	if !err.Guidance() {
		t.Error("connectivity errors must carry reachability guidance")
	}
	if classifyTransport(context.DeadlineExceeded).Guidance() {
		t.Error("timeouts must not carry reachability guidance")
	}
}

func TestDecodeImagePayload(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name     string
		payload  string
		wantKind ErrorKind
		wantLen  int
	}{
		{"plain base64", encoded, "", len(raw)},
		{"data uri prefix", "data:image/png;base64," + encoded, "", len(raw)},
		{"empty payload", "", KindDecode, 0},
		{"prefix only", "data:image/png;base64,", KindDecode, 0},
		{"not base64", "!!definitely not!!", KindDecode, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeImagePayload(tt.payload)
			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("decodeImagePayload: %v", err)
				}
				if len(got) != tt.wantLen {
					t.Errorf("decoded %d bytes, want %d", len(got), tt.wantLen)
				}
				return
			}
			var infErr *Error
			if !errors.As(err, &infErr) || infErr.Kind != tt.wantKind {
				t.Errorf("error = %v, want kind %q", err, tt.wantKind)
			}
		})
	}
}

func TestColorizeServerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "model unavailable"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Colorize(context.Background(), []byte("img"), "image/png", "")
	var infErr *Error
	if !errors.As(err, &infErr) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if infErr.Kind != KindServer || infErr.Status != http.StatusInternalServerError {
		t.Errorf("kind = %q status = %d", infErr.Kind, infErr.Status)
	}
	if infErr.Detail != "model unavailable" {
		t.Errorf("detail = %q, want server error message", infErr.Detail)
	}
}

func TestColorizeRejectedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": "bad image"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Colorize(context.Background(), []byte("img"), "image/png", "")
	var infErr *Error
	if !errors.As(err, &infErr) || infErr.Kind != KindServer || infErr.Detail != "bad image" {
		t.Fatalf("error = %v, want server rejection with detail", err)
	}
}

func TestSuggestColorsRequestFields(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		form = map[string]string{}
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				form[key] = values[0]
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "success",
			"suggestions": []map[string]any{{"r": 1, "g": 2, "b": 3, "confidence": 0.7}},
			"session_id":  "sess-3",
		})
	}))
	defer srv.Close()

	res, err := testClient(srv.URL).SuggestColors(context.Background(), []byte("img"), "image/jpeg", 12.5, 80, "sess-3")
	if err != nil {
		t.Fatalf("SuggestColors: %v", err)
	}
	if len(res.Suggestions) != 1 || res.SessionID != "sess-3" {
		t.Errorf("result = %+v", res)
	}

	if form["x"] != "12.5000" || form["y"] != "80.0000" {
		t.Errorf("coordinates = (%s, %s)", form["x"], form["y"])
	}
	if form["k"] != "5" {
		t.Errorf("k = %q, want 5", form["k"])
	}
	if form["session_id"] != "sess-3" {
		t.Errorf("session_id = %q", form["session_id"])
	}
}

func TestColorizeWithHintsEncodesPoints(t *testing.T) {
	var hintsRaw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		hintsRaw = r.MultipartForm.Value["hints"][0]
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "success",
			"image":      base64.StdEncoding.EncodeToString([]byte("pixels")),
			"session_id": "sess-4",
		})
	}))
	defer srv.Close()

	points := []HintPoint{
		{XPct: 50, YPct: 50, R: 200, G: 10, B: 10, Alpha: 1},
		{XPct: 10, YPct: 90, R: 5, G: 5, B: 250, Alpha: 0.5},
	}
	res, err := testClient(srv.URL).ColorizeWithHints(context.Background(), []byte("img"), "image/png", "", points)
	if err != nil {
		t.Fatalf("ColorizeWithHints: %v", err)
	}
	if string(res.Image) != "pixels" || res.SessionID != "sess-4" {
		t.Errorf("result = %+v", res)
	}

	var payload struct {
		Points []HintPoint `json:"points"`
	}
	if err := json.Unmarshal([]byte(hintsRaw), &payload); err != nil {
		t.Fatalf("hints field did not parse: %v", err)
	}
	if len(payload.Points) != 2 || payload.Points[1] != points[1] {
		t.Errorf("payload points = %+v", payload.Points)
	}
}
