package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"colorize/api/internal/workspace"
)

func (h HandlerSet) WorkspaceState(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	state := h.workspaces.Obtain(user.ID).Snapshot()

	resp := gin.H{
		"staged":             state.Staged,
		"width":              state.Width,
		"height":             state.Height,
		"sessionEstablished": state.SessionSet,
		"hints":              state.Hints,
		"pending":            state.Pending,
		"hasResult":          state.HasResult,
		"retries":            state.Retries,
	}
	if state.LastError != nil {
		resp["lastError"] = gin.H{
			"message": state.LastError.Message,
			"detail":  state.LastError.Detail,
			"kind":    string(state.LastError.Kind),
			"isCors":  state.LastError.Guidance(),
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) ReleaseWorkspace(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.workspaces.Release(user.ID)
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) StageImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_file"})
		return
	}

	width, height, err := h.workspaces.Obtain(user.ID).Stage(data)
	if err != nil {
		workspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"width": width, "height": height})
}

func (h HandlerSet) Preview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	data, mime, err := h.workspaces.Obtain(user.ID).Preview()
	if err != nil {
		workspaceError(c, err)
		return
	}

	c.Data(http.StatusOK, mime, data)
}

type selectionRequest struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	EditIndex *int `json:"editIndex"`
}

func (h HandlerSet) SelectPoint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	editIndex := -1
	if req.EditIndex != nil {
		editIndex = *req.EditIndex
	}

	pending, err := h.workspaces.Obtain(user.ID).Select(workspace.Point{X: req.X, Y: req.Y}, editIndex)
	if err != nil {
		workspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func (h HandlerSet) CancelSelection(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	h.workspaces.Obtain(user.ID).CancelPending()
	c.Status(http.StatusNoContent)
}

type confirmHintRequest struct {
	R     uint8    `json:"r"`
	G     uint8    `json:"g"`
	B     uint8    `json:"b"`
	Alpha *float64 `json:"alpha"`
}

func (h HandlerSet) ConfirmHint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req confirmHintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alpha := 1.0
	if req.Alpha != nil {
		alpha = *req.Alpha
	}

	count, err := h.workspaces.Obtain(user.ID).ConfirmPending(workspace.RGB{R: req.R, G: req.G, B: req.B}, alpha)
	if err != nil {
		workspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hintCount": count})
}

type repositionRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (h HandlerSet) RepositionHint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	var req repositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws := h.workspaces.Obtain(user.ID)
	if err := ws.RepositionHint(index, workspace.Point{X: req.X, Y: req.Y}); err != nil {
		workspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hints": ws.Hints()})
}

func (h HandlerSet) RemoveHint(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	ws := h.workspaces.Obtain(user.ID)
	if err := ws.RemoveHint(index); err != nil {
		workspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hints": ws.Hints()})
}

type suggestionRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Suggestions is non-fatal by design: a failed fetch returns a transient
// notice and an empty list so the user can still pick a color manually.
func (h HandlerSet) Suggestions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req suggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws := h.workspaces.Obtain(user.ID)
	suggestions, err := ws.Suggest(c.Request.Context(), workspace.Point{X: req.X, Y: req.Y})
	if err != nil {
		if err == workspace.ErrNoImage {
			workspaceError(c, err)
			return
		}
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("suggestion fetch failed")
		c.JSON(http.StatusOK, gin.H{
			"suggestions": []any{},
			"notice":      "color suggestions unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (h HandlerSet) Colorize(c *gin.Context) {
	h.runColorization(c, false)
}

func (h HandlerSet) RetryColorize(c *gin.Context) {
	h.runColorization(c, true)
}

func (h HandlerSet) runColorization(c *gin.Context, retry bool) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ws := h.workspaces.Obtain(user.ID)

	var (
		result *workspace.Result
		err    error
	)
	if retry {
		result, err = ws.Retry(c.Request.Context())
	} else {
		result, err = ws.Colorize(c.Request.Context())
	}
	if err != nil {
		workspaceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mode":       string(result.Mode),
		"pointCount": result.PointCount,
		"createdAt":  result.CreatedAt,
	})
}

func (h HandlerSet) Result(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.workspaces.Obtain(user.ID).Result()
	if err != nil {
		workspaceError(c, err)
		return
	}

	if c.Query("download") == "1" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename()))
	}
	c.Data(http.StatusOK, result.MIME, result.Data)
}
