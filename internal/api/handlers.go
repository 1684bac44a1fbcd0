package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/a3tai/mandat-pdf/internal/api/middleware"
	"github.com/a3tai/mandat-pdf/internal/mandate"
	"github.com/a3tai/mandat-pdf/internal/pdf/template"
)

// Operator headers describing how the mandate was filled
const (
	HeaderStrategy = "X-Mandat-Strategy"
	HeaderFilled   = "X-Mandat-Filled"
	HeaderFailed   = "X-Mandat-Failed"
)

// Client-facing error messages
const (
	msgEmptyBody        = "Le corps de la requête est vide."
	msgInvalidJSON      = "Le corps de la requête n'est pas un JSON valide."
	msgTemplateNotFound = "Modèle de mandat introuvable (template not found)."
	msgInternal         = "Erreur lors de la génération du mandat."
)

// Generator produces a mandate. *mandate.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, req mandate.Request) (*mandate.Document, error)
}

// MandateHandler serves mandate generation
type MandateHandler struct {
	generator Generator
	log       *zap.Logger
}

// NewMandateHandler creates a handler
func NewMandateHandler(generator Generator, log *zap.Logger) *MandateHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &MandateHandler{generator: generator, log: log}
}

// Generate handles POST /api/v1/mandat
func (h *MandateHandler) Generate(c *gin.Context) {
	log := h.log.With(zap.String("request_id", middleware.GetRequestID(c)))

	var req mandate.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Failed to parse request",
			zap.Error(err),
			zap.String("content_type", c.GetHeader("Content-Type")),
		)
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": msgEmptyBody})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidJSON})
		return
	}

	// Checked here as well as in the generator so an invalid body never reaches
	// the template.
	if err := req.Validate(); err != nil {
		h.fail(c, log, err)
		return
	}

	doc, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		h.fail(c, log, err)
		return
	}

	log.Info("mandate generated",
		zap.String("filename", doc.Filename),
		zap.String("method", string(doc.Method)),
		zap.Int("filled", doc.Result.SuccessCount),
		zap.Int("failed", len(doc.Result.FailedLabels)),
		zap.Int("size", len(doc.Bytes)),
	)

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Header(HeaderStrategy, string(doc.Method))
	c.Header(HeaderFilled, strconv.Itoa(doc.Result.SuccessCount))
	if len(doc.Result.FailedLabels) > 0 {
		c.Header(HeaderFailed, headerSafe(strings.Join(doc.Result.FailedLabels, "; ")))
	}
	c.Data(http.StatusOK, "application/pdf", doc.Bytes)
}

// fail maps err onto the status codes of the endpoint
func (h *MandateHandler) fail(c *gin.Context, log *zap.Logger, err error) {
	var verr *mandate.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Info("mandate request rejected", zap.String("field", verr.Field), zap.String("reason", verr.Message))
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, template.ErrTemplateNotFound):
		log.Error("mandate template missing", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": msgTemplateNotFound})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Warn("mandate generation interrupted", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	default:
		log.Error("mandate generation failed", zap.Error(err), zap.Stack("stack"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

// headerSafe drops characters that cannot travel in an HTTP header value
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
