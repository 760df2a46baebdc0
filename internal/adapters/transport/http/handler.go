package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/filevault/auth-service/internal/adapters/transport/http/dto"
	"github.com/filevault/auth-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/filevault/auth-service/internal/app/auth/service"
	authErrors "github.com/filevault/auth-service/internal/domain/auth/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc appsvc.Service
	log *zap.Logger
}

func NewHandler(svc appsvc.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/signup", h.signUp)
	r.POST("/signin", h.signIn)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)
	r.GET("/sessions/:id", h.session)
	r.GET("/health", h.health)

	authed := r.Group("/", middleware.Authn(h.svc))
	authed.GET("/info", h.info)
}

func (h *Handler) signUp(c *gin.Context) {
	var body dto.SignUpDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.svc.SignUp(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) signIn(c *gin.Context) {
	var body dto.SignInDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.SignIn(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    int(pair.AccessTTL.Seconds()),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    int(pair.AccessTTL.Seconds()),
	})
}

func (h *Handler) logout(c *gin.Context) {
	var body dto.LogoutDTO
	// The access token may arrive in the body or as a bearer header.
	_ = c.ShouldBindJSON(&body)
	if body.AccessToken == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			body.AccessToken = strings.TrimPrefix(header, "Bearer ")
		}
	}

	if err := h.svc.Logout(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// info returns the id of the authenticated caller. The account row is
// re-read in case it was deleted while a token was still outstanding.
func (h *Handler) info(c *gin.Context) {
	accountID := c.GetString(middleware.ContextAccountID)

	view, ok, err := h.svc.GetUserData(c.Request.Context(), accountID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": view.ID})
}

func (h *Handler) session(c *gin.Context) {
	sess, ok, err := h.svc.GetSessionData(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsMissingCredentials(err),
		authErrors.IsInvalidIdentifier(err),
		authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsInvalidCredentials(err),
		authErrors.IsInvalidToken(err),
		authErrors.IsExpiredToken(err),
		authErrors.IsMissingToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case authErrors.IsUserNotFound(err), authErrors.IsSessionNotFound(err), authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
