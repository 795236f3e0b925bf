package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"colorize/api/internal/config"
	"colorize/api/internal/ids"
	"colorize/api/internal/inference"
	"colorize/api/internal/media/sniffer"
)

type Mode string

const (
	ModeAutomatic Mode = "automatic"
	ModeHinted    Mode = "hinted"
)

// PendingSelection is the at-most-one point awaiting color confirmation.
// EditIndex < 0 means a new hint; otherwise it replaces the hint at that
// index. Color is nil until the picker settles on one.
type PendingSelection struct {
	Position  Point   `json:"position"`
	Display   Point   `json:"displayPosition"`
	EditIndex int     `json:"editIndex"`
	Color     *RGB    `json:"color,omitempty"`
	Alpha     float64 `json:"alpha"`
}

// Result is the most recent successfully decoded output, replaced
// wholesale by each success.
type Result struct {
	Data       []byte
	MIME       string
	Mode       Mode
	PointCount int
	CreatedAt  time.Time
}

// Filename derives a download name from the result timestamp.
func (r *Result) Filename() string {
	ext := "png"
	if r.MIME == "image/jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("colorized-%s.%s", r.CreatedAt.Format("20060102-150405"), ext)
}

// Workspace is the working context for one staged image: the staged
// bytes, the hint collection, the pending selection, the session
// correlation id and the latest result. All state behind one mutex; every
// mutation is applied synchronously under it, so a caller that commits a
// pending selection and then builds a request payload always reads a
// consistent snapshot. Network calls run outside the lock; a generation
// counter taken at issue time gates their completions so a response for a
// replaced image is discarded instead of clobbering newer state.
type Workspace struct {
	mu sync.Mutex

	id     string
	mapper Mapper
	cfg    config.WorkspaceConfig
	client *inference.Client
	cache  *redis.Client
	log    zerolog.Logger

	image      []byte
	mime       string
	width      int
	height     int
	sessionID  string
	hints      *HintStore
	pending    *PendingSelection
	result     *Result
	lastErr    *inference.Error
	retries    int
	generation uint64
	lastActive time.Time
}

func New(cfg config.WorkspaceConfig, client *inference.Client, cache *redis.Client, log zerolog.Logger) *Workspace {
	mapper := Mapper{Resolution: cfg.ModelResolution}
	return &Workspace{
		id:         ids.New(),
		mapper:     mapper,
		cfg:        cfg,
		client:     client,
		cache:      cache,
		log:        log,
		hints:      NewHintStore(mapper),
		lastActive: time.Now(),
	}
}

// Stage validates and installs a new source image. Checks run in order:
// sniffed type against the colorization allow-list, byte size, decoded
// pixel dimensions. Success wipes every piece of per-image state; the
// session correlation id resets because a new image means a new remote
// session.
func (w *Workspace) Stage(data []byte) (width, height int, err error) {
	detected, err := sniffer.DetectHead(head(data))
	if err != nil || !sniffer.Allowed(detected.Type, sniffer.ColorizeTypes) {
		return 0, 0, &ValidationError{
			Reason:  ReasonType,
			Message: "image must be JPEG or PNG",
		}
	}

	if int64(len(data)) > w.cfg.MaxImageBytes {
		return 0, 0, &ValidationError{
			Reason:  ReasonSize,
			Message: fmt.Sprintf("image exceeds %d MB limit", w.cfg.MaxImageBytes/(1024*1024)),
		}
	}

	width, height, err = sniffer.Dimensions(data)
	if err != nil {
		return 0, 0, &ValidationError{
			Reason:  ReasonType,
			Message: "image could not be decoded",
		}
	}
	if width > w.cfg.MaxDimension || height > w.cfg.MaxDimension {
		return 0, 0, &ValidationError{
			Reason:  ReasonDimensions,
			Message: fmt.Sprintf("image dimensions exceed %dx%d", w.cfg.MaxDimension, w.cfg.MaxDimension),
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.image = data
	w.mime = detected.MIME
	w.width = width
	w.height = height
	w.sessionID = ""
	w.hints.Clear()
	w.pending = nil
	w.result = nil
	w.lastErr = nil
	w.retries = 0
	w.generation++
	w.touchLocked()

	return width, height, nil
}

// Preview returns the staged bytes for rendering.
func (w *Workspace) Preview() ([]byte, string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.image == nil {
		return nil, "", ErrNoImage
	}
	w.touchLocked()
	return w.image, w.mime, nil
}

// Select opens a pending selection at a display coordinate, either for a
// new hint (editIndex < 0) or to recolor an existing one.
func (w *Workspace) Select(display Point, editIndex int) (*PendingSelection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.image == nil {
		return nil, ErrNoImage
	}
	if editIndex >= w.hints.Len() {
		return nil, ErrBadIndex
	}

	pending := &PendingSelection{
		Position:  w.mapper.ToModelSpace(display.X, display.Y, w.width, w.height),
		Display:   display,
		EditIndex: editIndex,
		Alpha:     1.0,
	}
	if editIndex >= 0 {
		existing := w.hints.Hints()[editIndex]
		pending.Position = existing.Position
		pending.Display = existing.Display
		color := existing.Color
		pending.Color = &color
		pending.Alpha = existing.Alpha
	}

	w.pending = pending
	w.touchLocked()
	return pending, nil
}

// CancelPending discards the open selection, if any.
func (w *Workspace) CancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = nil
	w.touchLocked()
}

// ConfirmPending commits the open selection as a hint and returns the
// resulting hint count. The commit happens entirely under the workspace
// lock: by the time this returns, any snapshot taken for a colorization
// payload will see the new hint.
func (w *Workspace) ConfirmPending(color RGB, alpha float64) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return 0, ErrNoPending
	}
	w.pending.Color = &color
	w.pending.Alpha = alpha
	if err := w.commitPendingLocked(); err != nil {
		return 0, err
	}
	w.touchLocked()
	return w.hints.Len(), nil
}

func (w *Workspace) commitPendingLocked() error {
	p := w.pending
	if p == nil {
		return ErrNoPending
	}
	if p.Color == nil {
		return ErrNoColor
	}
	hint := Hint{
		Position: p.Position,
		Display:  p.Display,
		Color:    *p.Color,
		Alpha:    p.Alpha,
	}
	if err := w.hints.AddOrUpdate(hint, p.EditIndex); err != nil {
		return err
	}
	w.pending = nil
	return nil
}

// RemoveHint deletes one hint; remaining entries keep their order.
func (w *Workspace) RemoveHint(i int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touchLocked()
	return w.hints.Remove(i)
}

// RepositionHint moves a hint to a new display position, updating both
// coordinate forms atomically.
func (w *Workspace) RepositionHint(i int, display Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.image == nil {
		return ErrNoImage
	}
	w.touchLocked()
	return w.hints.Reposition(i, display, w.width, w.height)
}

func (w *Workspace) Hints() []Hint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hints.Hints()
}

// Colorize runs one colorization attempt. A colored pending selection is
// committed first, synchronously, so the payload reflects it; a colorless
// one (an abandoned picker) is discarded. Zero hints means automatic
// mode. A failure stores a structured error and leaves hints, the staged
// image and any prior result untouched.
func (w *Workspace) Colorize(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	if w.image == nil {
		w.mu.Unlock()
		return nil, ErrNoImage
	}
	if w.pending != nil {
		if w.pending.Color != nil {
			if err := w.commitPendingLocked(); err != nil {
				w.mu.Unlock()
				return nil, err
			}
		} else {
			w.pending = nil
		}
	}

	gen := w.generation
	image := w.image
	mime := w.mime
	width, height := w.width, w.height
	sessionID := w.sessionID
	hints := w.hints.Hints()
	w.touchLocked()
	w.mu.Unlock()

	mode := ModeAutomatic
	var (
		res    inference.ColorizeResult
		callEr error
	)
	if len(hints) > 0 {
		mode = ModeHinted
		points := make([]inference.HintPoint, len(hints))
		for i, h := range hints {
			xPct, yPct := w.mapper.ModelPercent(h.Position, width, height)
			points[i] = inference.HintPoint{
				XPct:  xPct,
				YPct:  yPct,
				R:     h.Color.R,
				G:     h.Color.G,
				B:     h.Color.B,
				Alpha: h.Alpha,
			}
		}
		res, callEr = w.client.ColorizeWithHints(ctx, image, mime, sessionID, points)
	} else {
		res, callEr = w.client.Colorize(ctx, image, mime, sessionID)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.generation != gen {
		// A newer image was staged while the call was in flight.
		return nil, ErrSuperseded
	}

	if callEr != nil {
		w.lastErr = asInferenceError(callEr)
		w.log.Warn().
			Str("workspace", w.id).
			Str("mode", string(mode)).
			Str("kind", string(w.lastErr.Kind)).
			Msg("colorization failed")
		return nil, callEr
	}

	if res.SessionID != "" {
		w.sessionID = res.SessionID
	}

	resultMIME := "image/png"
	if detected, err := sniffer.DetectHead(head(res.Image)); err == nil {
		resultMIME = detected.MIME
	}

	result := &Result{
		Data:       res.Image,
		MIME:       resultMIME,
		Mode:       mode,
		PointCount: len(hints),
		CreatedAt:  time.Now(),
	}
	w.result = result
	w.retries = 0
	w.lastErr = nil
	return result, nil
}

// Retry bumps the display counter and re-runs the same orchestration
// path with current state: hinted if hints exist, automatic otherwise.
func (w *Workspace) Retry(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	w.retries++
	w.mu.Unlock()
	return w.Colorize(ctx)
}

// Suggest fetches ranked color suggestions for a display point, sent as a
// percentage of the image dimensions. Results are cached for the active
// edit session; a new image invalidates the cache through the generation
// in the key. Failure here is non-fatal to the workspace: the caller
// surfaces a transient notice and the user picks a color manually.
func (w *Workspace) Suggest(ctx context.Context, display Point) ([]inference.Suggestion, error) {
	w.mu.Lock()
	if w.image == nil {
		w.mu.Unlock()
		return nil, ErrNoImage
	}
	gen := w.generation
	image := w.image
	mime := w.mime
	sessionID := w.sessionID
	xPct, yPct := ImagePercent(display, w.width, w.height)
	w.touchLocked()
	w.mu.Unlock()

	cacheKey := fmt.Sprintf("ws:%s:suggest:%d:%d:%d", w.id, gen, display.X, display.Y)
	if cached, ok := w.cachedSuggestions(ctx, cacheKey); ok {
		return cached, nil
	}

	res, err := w.client.SuggestColors(ctx, image, mime, xPct, yPct, sessionID)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.generation == gen && w.sessionID == "" && res.SessionID != "" {
		w.sessionID = res.SessionID
	}
	w.mu.Unlock()

	w.storeSuggestions(ctx, cacheKey, res.Suggestions)
	return res.Suggestions, nil
}

func (w *Workspace) cachedSuggestions(ctx context.Context, key string) ([]inference.Suggestion, bool) {
	if w.cache == nil {
		return nil, false
	}
	raw, err := w.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var suggestions []inference.Suggestion
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, false
	}
	return suggestions, true
}

func (w *Workspace) storeSuggestions(ctx context.Context, key string, suggestions []inference.Suggestion) {
	if w.cache == nil {
		return
	}
	raw, err := json.Marshal(suggestions)
	if err != nil {
		return
	}
	if err := w.cache.Set(ctx, key, raw, w.cfg.SuggestCacheTTL).Err(); err != nil {
		w.log.Debug().Err(err).Msg("suggestion cache write failed")
	}
}

// Result returns the latest colorized output.
func (w *Workspace) Result() (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return nil, ErrNoResult
	}
	w.touchLocked()
	return w.result, nil
}

// State is a renderable snapshot of the workspace.
type State struct {
	Staged     bool              `json:"staged"`
	Width      int               `json:"width,omitempty"`
	Height     int               `json:"height,omitempty"`
	SessionSet bool              `json:"sessionEstablished"`
	Hints      []Hint            `json:"hints"`
	Pending    *PendingSelection `json:"pending,omitempty"`
	HasResult  bool              `json:"hasResult"`
	Retries    int               `json:"retries"`
	LastError  *inference.Error  `json:"-"`
}

func (w *Workspace) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Staged:     w.image != nil,
		Width:      w.width,
		Height:     w.height,
		SessionSet: w.sessionID != "",
		Hints:      w.hints.Hints(),
		Pending:    w.pending,
		HasResult:  w.result != nil,
		Retries:    w.retries,
		LastError:  w.lastErr,
	}
}

func (w *Workspace) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

func (w *Workspace) touchLocked() {
	w.lastActive = time.Now()
}

func asInferenceError(err error) *inference.Error {
	var infErr *inference.Error
	if errors.As(err, &infErr) {
		return infErr
	}
	return &inference.Error{Kind: inference.KindOther, Message: err.Error()}
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
