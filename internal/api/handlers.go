package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"slipalert-service/internal/models"
)

// Store is the read side the API serves.
type Store interface {
	ListWarnings(ctx context.Context, limit, offset int) ([]models.Warning, error)
	ListActiveWarnings(ctx context.Context, now time.Time) ([]models.Warning, error)
	GetWarningDetails(ctx context.Context, warningID string) ([]models.WarningDetail, error)
	ListInboundLogs(ctx context.Context, limit, offset int) ([]models.InboundLog, error)
}

// InboundHandler processes one received SMS and reports the audit status.
type InboundHandler interface {
	Handle(ctx context.Context, phone, text string) string
}

type Handler struct {
	store   Store
	inbound InboundHandler
	logger  *logrus.Logger
}

func NewHandler(store Store, inbound InboundHandler, logger *logrus.Logger) *Handler {
	return &Handler{store: store, inbound: inbound, logger: logger}
}

// receiveSMSRequest accepts both field namings the gateway webhook uses,
// as JSON or form-encoded.
type receiveSMSRequest struct {
	From    string `json:"from" form:"from"`
	MSISDN  string `json:"msisdn" form:"msisdn"`
	Message string `json:"message" form:"message"`
	Text    string `json:"text" form:"text"`
}

func (r receiveSMSRequest) phone() string {
	if r.From != "" {
		return r.From
	}
	return r.MSISDN
}

func (r receiveSMSRequest) body() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Text
}

func (h *Handler) ReceiveSMS(c *gin.Context) {
	var req receiveSMSRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Errorf("Invalid inbound SMS payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.phone() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing sender phone"})
		return
	}

	status := h.inbound.Handle(c.Request.Context(), req.phone(), req.body())
	c.JSON(http.StatusOK, gin.H{"status": status})
}

type warningResponse struct {
	models.Warning
	Details []models.WarningDetail `json:"details"`
}

func (h *Handler) ListWarnings(c *gin.Context) {
	limit, offset := pagination(c)
	warnings, err := h.store.ListWarnings(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to list warnings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list warnings"})
		return
	}
	c.JSON(http.StatusOK, h.withDetails(c.Request.Context(), warnings))
}

func (h *Handler) ListActiveWarnings(c *gin.Context) {
	warnings, err := h.store.ListActiveWarnings(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Errorf("Failed to list active warnings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list active warnings"})
		return
	}
	c.JSON(http.StatusOK, h.withDetails(c.Request.Context(), warnings))
}

// withDetails attaches per-language content to each warning. A failed detail
// lookup degrades to an empty list rather than failing the whole response.
func (h *Handler) withDetails(ctx context.Context, warnings []models.Warning) []warningResponse {
	out := make([]warningResponse, 0, len(warnings))
	for _, w := range warnings {
		details, err := h.store.GetWarningDetails(ctx, w.ID)
		if err != nil {
			h.logger.Errorf("Failed to load details for warning %s: %v", w.ID, err)
			details = []models.WarningDetail{}
		}
		out = append(out, warningResponse{Warning: w, Details: details})
	}
	return out
}

func (h *Handler) ListInboundLogs(c *gin.Context) {
	limit, offset := pagination(c)
	logs, err := h.store.ListInboundLogs(c.Request.Context(), limit, offset)
	if err != nil {
		h.logger.Errorf("Failed to list inbound logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inbound logs"})
		return
	}
	if logs == nil {
		logs = []models.InboundLog{}
	}
	c.JSON(http.StatusOK, logs)
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
