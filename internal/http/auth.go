package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-registry/internal/domain/plate"
	"plate-registry/internal/service"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"

	// UserIDKey holds the authenticated user id in the gin context.
	UserIDKey = "userID"
)

type AuthHandler struct {
	auth *service.AuthService
	log  zerolog.Logger
}

func NewAuthHandler(auth *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/auth")
	{
		group.POST("/register", h.register)
		group.POST("/login", h.login)
	}
}

func (h *AuthHandler) register(c *gin.Context) {
	var payload plate.RegisterUserPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), payload)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(user))
}

func (h *AuthHandler) login(c *gin.Context) {
	var payload plate.LoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), payload)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the token subject under UserIDKey.
func AuthMiddleware(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("missing authorization header"))
			return
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], bearerScheme) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("invalid authorization header"))
			return
		}

		userID, err := auth.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(service.ErrTokenInvalid.Error()))
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
