package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-registry/internal/config"
	"plate-registry/internal/domain/plate"
	"plate-registry/internal/service"
	"plate-registry/internal/upload"
)

const (
	imageFormField = "imagem"
	cityFormField  = "cidade"
)

type Handler struct {
	registration *service.RegistrationService
	lookup       *service.LookupService
	config       *config.Config
	log          zerolog.Logger
}

func NewHandler(
	registration *service.RegistrationService,
	lookup *service.LookupService,
	cfg *config.Config,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		registration: registration,
		lookup:       lookup,
		config:       cfg,
		log:          log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	public := r.Group("/api/v1")
	{
		public.GET("/tutorial", h.tutorialVideo)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/plates", h.createPlate)
		protected.GET("/plates/:number", h.getPlate)
		protected.GET("/reports/cities/:city", h.cityReport)
	}
}

type inlineImagePayload struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	ContentType string `json:"content_type"`
	City        string `json:"cidade"`
}

func (h *Handler) createPlate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Server.MaxUploadMB<<20)

	var (
		image service.ImageSource
		city  string
	)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var payload inlineImagePayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			h.badUpload(c, err, err.Error())
			return
		}
		data, err := base64.StdEncoding.DecodeString(payload.ImageBase64)
		if err != nil || len(data) == 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid image data"))
			return
		}
		image = upload.FromBytes(data, payload.ContentType, "")
		city = payload.City
	} else {
		fh, err := c.FormFile(imageFormField)
		if err != nil {
			h.badUpload(c, err, "no image file was sent")
			return
		}
		tmp, err := upload.Save(fh, h.config.Server.UploadDir)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to spool uploaded image")
			c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
			return
		}
		image = tmp
		city = c.PostForm(cityFormField)
	}

	result, err := h.registration.RegisterPlate(c.Request.Context(), service.RegistrationRequest{
		Image:      image,
		CityHint:   city,
		UploadedBy: c.GetString(UserIDKey),
	})
	if err != nil {
		h.registrationError(c, result, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "ok",
		"outcome": result.Outcome,
		"message": "plate registered",
	})
}

// badUpload answers 413 when the body went over the upload limit and 400
// otherwise.
func (h *Handler) badUpload(c *gin.Context, err error, message string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.log.Warn().Int64("limit_bytes", tooLarge.Limit).Msg("upload over size limit")
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse(fmt.Sprintf("image exceeds %d MB", h.config.Server.MaxUploadMB)))
		return
	}
	c.JSON(http.StatusBadRequest, errorResponse(message))
}

func (h *Handler) registrationError(c *gin.Context, result *plate.RegistrationResult, err error) {
	outcome := service.OutcomeOf(err)
	if result != nil {
		outcome = result.Outcome
	}

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "outcome": outcome})
	case errors.Is(err, service.ErrRecognitionFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrRecognitionFailed.Error(), "outcome": outcome})
	case errors.Is(err, service.ErrUnrecognizedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrUnrecognizedFormat.Error(), "outcome": outcome})
	default:
		h.log.Error().Err(err).Msg("failed to register plate")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "outcome": outcome})
	}
}

func (h *Handler) getPlate(c *gin.Context) {
	records, err := h.lookup.FindByPlateNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(records))
}

func (h *Handler) cityReport(c *gin.Context) {
	report, err := h.lookup.CityReport(c.Request.Context(), c.Param("city"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.FileName}))
	c.Data(http.StatusOK, report.ContentType, report.Content)
}

func (h *Handler) tutorialVideo(c *gin.Context) {
	path := h.config.Server.TutorialVideo
	if path == "" {
		c.JSON(http.StatusNotFound, errorResponse("tutorial not available"))
		return
	}
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, errorResponse("tutorial not available"))
		return
	}
	// http.ServeFile answers Range requests with 206.
	c.File(path)
}

func handleError(c *gin.Context, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
