package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"colorize/api/internal/config"
)

// HintPoint is one colorization instruction on the wire: coordinates as a
// percentage of the original image dimensions plus the chosen color.
type HintPoint struct {
	XPct  float64 `json:"x_pct"`
	YPct  float64 `json:"y_pct"`
	R     uint8   `json:"r"`
	G     uint8   `json:"g"`
	B     uint8   `json:"b"`
	Alpha float64 `json:"a"`
}

type Suggestion struct {
	R          uint8   `json:"r"`
	G          uint8   `json:"g"`
	B          uint8   `json:"b"`
	Confidence float64 `json:"confidence"`
}

type ColorizeResult struct {
	Image     []byte
	SessionID string
}

type SuggestResult struct {
	Suggestions []Suggestion
	SessionID   string
}

type colorizeResponse struct {
	Status    string `json:"status"`
	Image     string `json:"image"`
	SessionID string `json:"session_id"`
	Error     string `json:"error"`
}

type suggestResponse struct {
	Status      string       `json:"status"`
	Suggestions []Suggestion `json:"suggestions"`
	SessionID   string       `json:"session_id"`
	Error       string       `json:"error"`
}

// Client talks to the remote colorization service. Per-call timeouts come
// from the injected config, not from the embedded http.Client, so a single
// client serves both the 30s suggestion path and the 60s colorize path.
type Client struct {
	baseURL string
	http    *http.Client
	cfg     config.InferenceConfig
	log     zerolog.Logger
}

func NewClient(cfg config.InferenceConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{},
		cfg:     cfg,
		log:     log,
	}
}

// Colorize requests automatic colorization: the image alone, plus the
// session id when one is known.
func (c *Client) Colorize(ctx context.Context, image []byte, mime string, sessionID string) (ColorizeResult, error) {
	return c.colorize(ctx, "/colorize", image, mime, sessionID, nil)
}

// ColorizeWithHints requests hinted colorization.
func (c *Client) ColorizeWithHints(ctx context.Context, image []byte, mime string, sessionID string, points []HintPoint) (ColorizeResult, error) {
	return c.colorize(ctx, "/colorize_with_hints", image, mime, sessionID, points)
}

func (c *Client) colorize(ctx context.Context, endpoint string, image []byte, mime string, sessionID string, points []HintPoint) (ColorizeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ColorizeTimeout)
	defer cancel()

	fields := map[string]string{}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}
	if points != nil {
		hints, err := json.Marshal(struct {
			Points []HintPoint `json:"points"`
		}{Points: points})
		if err != nil {
			return ColorizeResult{}, &Error{Kind: KindOther, Message: "encode hints", Detail: err.Error()}
		}
		fields["hints"] = string(hints)
	}

	var resp colorizeResponse
	if err := c.postMultipart(ctx, endpoint, image, mime, fields, &resp); err != nil {
		return ColorizeResult{}, err
	}

	if resp.Status != "success" {
		return ColorizeResult{}, &Error{
			Kind:    KindServer,
			Status:  http.StatusOK,
			Message: "colorization rejected",
			Detail:  resp.Error,
		}
	}

	decoded, err := decodeImagePayload(resp.Image)
	if err != nil {
		return ColorizeResult{}, err
	}

	return ColorizeResult{Image: decoded, SessionID: resp.SessionID}, nil
}

// SuggestColors asks for the top-k ranked colors at a point, given as a
// percentage of the image dimensions.
func (c *Client) SuggestColors(ctx context.Context, image []byte, mime string, xPct, yPct float64, sessionID string) (SuggestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SuggestTimeout)
	defer cancel()

	fields := map[string]string{
		"x": strconv.FormatFloat(xPct, 'f', 4, 64),
		"y": strconv.FormatFloat(yPct, 'f', 4, 64),
		"k": strconv.Itoa(c.cfg.SuggestionCount),
	}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}

	var resp suggestResponse
	if err := c.postMultipart(ctx, "/suggest_colors", image, mime, fields, &resp); err != nil {
		return SuggestResult{}, err
	}

	if resp.Status != "success" {
		return SuggestResult{}, &Error{
			Kind:    KindServer,
			Status:  http.StatusOK,
			Message: "suggestion rejected",
			Detail:  resp.Error,
		}
	}

	return SuggestResult{Suggestions: resp.Suggestions, SessionID: resp.SessionID}, nil
}

func (c *Client) postMultipart(ctx context.Context, endpoint string, image []byte, mime string, fields map[string]string, out any) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "image."+extForMIME(mime))
	if err != nil {
		return &Error{Kind: KindOther, Message: "build request", Detail: err.Error()}
	}
	if _, err := part.Write(image); err != nil {
		return &Error{Kind: KindOther, Message: "build request", Detail: err.Error()}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return &Error{Kind: KindOther, Message: "build request", Detail: err.Error()}
		}
	}
	if err := writer.Close(); err != nil {
		return &Error{Kind: KindOther, Message: "build request", Detail: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &body)
	if err != nil {
		return &Error{Kind: KindOther, Message: "build request", Detail: err.Error()}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("service returned %d", resp.StatusCode),
			Detail:  serverDetail(raw),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindOther, Message: "decode response", Detail: err.Error()}
	}
	return nil
}

// classifyTransport separates requests that never reached the server from
// timeouts and everything else.
func classifyTransport(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindOther, Message: "request timed out", Detail: err.Error()}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return &Error{Kind: KindOther, Message: "request timed out", Detail: err.Error()}
		}
		return &Error{
			Kind:    KindConnectivity,
			Message: "could not reach colorization service",
			Detail:  urlErr.Err.Error(),
		}
	}

	return &Error{Kind: KindOther, Message: "request failed", Detail: err.Error()}
}

func serverDetail(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}

func decodeImagePayload(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 {
		encoded = encoded[idx+len(";base64,"):]
	}
	if strings.TrimSpace(encoded) == "" {
		return nil, &Error{Kind: KindDecode, Message: "service returned no image"}
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Message: "undecodable image payload", Detail: err.Error()}
	}
	if len(decoded) == 0 {
		return nil, &Error{Kind: KindDecode, Message: "service returned no image"}
	}
	return decoded, nil
}

func extForMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	default:
		return "jpg"
	}
}
