package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"colorize/api/internal/config"
	"colorize/api/internal/inference"
	"colorize/api/internal/middleware"
	"colorize/api/internal/models"
	"colorize/api/internal/repository"
	"colorize/api/internal/service"
	"colorize/api/internal/storage"
	"colorize/api/internal/workspace"
)

type HandlerSet struct {
	log            zerolog.Logger
	cfg            *config.AppConfig
	authService    *service.AuthService
	accountService *service.AccountService
	workspaces     *workspace.Registry
	db             *pgxpool.Pool
	cache          *redis.Client
	users          *repository.UserRepository
	sessions       *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, registry *workspace.Registry, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	auth := service.NewAuthService(userRepo, sessionRepo, cfg, log)
	account := service.NewAccountService(userRepo, store, cache, cfg, log)

	return HandlerSet{
		log:            log,
		cfg:            cfg,
		authService:    auth,
		accountService: account,
		workspaces:     registry,
		db:             db,
		cache:          cache,
		users:          userRepo,
		sessions:       sessionRepo,
	}
}

func (h HandlerSet) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.users, h.sessions))
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:deviceId", h.RevokeSession)
	}

	account := v1.Group("/account")
	account.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	account.PUT("/username", h.UpdateUsername)
	account.PUT("/password", h.ChangePassword)
	account.POST("/avatar", h.UploadAvatar)
	account.POST("/tour", h.TourStatus)

	ws := v1.Group("/workspace")
	ws.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	ws.GET("", h.WorkspaceState)
	ws.DELETE("", h.ReleaseWorkspace)
	ws.POST("/image", h.StageImage)
	ws.GET("/preview", h.Preview)
	ws.POST("/selection", h.SelectPoint)
	ws.DELETE("/selection", h.CancelSelection)
	ws.POST("/hints", h.ConfirmHint)
	ws.PUT("/hints/:index/position", h.RepositionHint)
	ws.DELETE("/hints/:index", h.RemoveHint)
	ws.POST("/suggestions", h.Suggestions)
	ws.POST("/colorize", h.Colorize)
	ws.POST("/retry", h.RetryColorize)
	ws.GET("/result", h.Result)

	admin := v1.Group("/admin")
	admin.Use(
		middleware.Auth(h.cfg, h.users, h.sessions),
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.GET("/users", h.AdminListUsers)
	admin.PATCH("/users/:id/status", h.AdminUpdateUserStatus)
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

// workspaceError maps the orchestrator's error taxonomy onto the JSON
// surface the front-end renders: validation errors block the action with
// a notice, request errors fill the retryable error panel.
func workspaceError(c *gin.Context, err error) {
	var valErr *workspace.ValidationError
	if errors.As(err, &valErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  string(valErr.Reason),
			"notice": valErr.Message,
		})
		return
	}

	var infErr *inference.Error
	if errors.As(err, &infErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "colorization_failed",
			"message": infErr.Message,
			"detail":  infErr.Detail,
			"kind":    string(infErr.Kind),
			"isCors":  infErr.Guidance(),
		})
		return
	}

	switch {
	case errors.Is(err, workspace.ErrNoResult):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workspace.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, workspace.ErrNoImage),
		errors.Is(err, workspace.ErrNoPending),
		errors.Is(err, workspace.ErrNoColor),
		errors.Is(err, workspace.ErrBadIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
