package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"colorize/api/internal/models"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	limit := 50
	offset := 0

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if page := c.Query("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}

	users, err := h.users.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]map[string]interface{}, 0, len(users))
	for _, user := range users {
		items = append(items, map[string]interface{}{
			"id":                 user.ID,
			"email":              user.Email,
			"username":           user.Username,
			"role":               user.Role,
			"status":             user.Status,
			"registrationMethod": user.RegistrationMethod,
			"avatarUrl":          user.AvatarURL,
			"createdAt":          user.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

func (h HandlerSet) AdminUpdateUserStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.UpdateStatus(c.Request.Context(), id, models.UserStatus(req.Status)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
