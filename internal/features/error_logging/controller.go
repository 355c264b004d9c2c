package error_logging

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type ErrorLoggingController struct {
	errorLoggingService *ErrorLoggingService
	logger              *slog.Logger
}

func (c *ErrorLoggingController) RegisterRoutes(router *gin.RouterGroup) {
	// Reports come from anonymous visitors, so there is no auth middleware.
	routes := router.Group("/error-logging")

	routes.GET("", c.GetStatus)
	routes.POST("", c.LogError)
}

// GetStatus
// @Summary Error logging status
// @Description Returns the log group and today's log stream that reports are written to, and whether CloudWatch credentials are configured.
// @Tags error-logging
// @Produce json
// @Success 200 {object} StatusResponseDTO
// @Router /error-logging [get]
func (c *ErrorLoggingController) GetStatus(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.errorLoggingService.GetStatus())
}

// LogError
// @Summary Report a client error
// @Description Accepts one error record, removes email addresses and phone numbers from its message and stack, and writes it to the day's CloudWatch log stream.
// @Description
// @Description Without CloudWatch credentials the report is rejected in production and only logged locally in development.
// @Tags error-logging
// @Accept json
// @Produce json
// @Param request body IngestErrorRequestDTO true "Error record"
// @Success 200 {object} IngestErrorResponseDTO "Report stored"
// @Success 200 {object} DevelopmentModeResponseDTO "Development mode, report only logged locally"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 429 {object} map[string]string "Too many error reports"
// @Failure 500 {object} map[string]string "Error logging is not configured or failed"
// @Router /error-logging [post]
func (c *ErrorLoggingController) LogError(ctx *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic while logging client error", slog.Any("panic", r))
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to log error"})
		}
	}()

	if err := c.errorLoggingService.CheckRateLimit(ctx.ClientIP()); err != nil {
		c.handleError(ctx, err)
		return
	}

	developmentResponse, err := c.errorLoggingService.CheckConfigured()
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	var request IngestErrorRequestDTO
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	if developmentResponse != nil {
		c.errorLoggingService.LogLocally(&request)
		ctx.JSON(http.StatusOK, developmentResponse)
		return
	}

	response, err := c.errorLoggingService.IngestError(ctx.Request.Context(), &request)
	if err != nil {
		c.handleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response)
}

func (c *ErrorLoggingController) handleError(ctx *gin.Context, err error) {
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		ctx.Header("Retry-After", strconv.Itoa(max(1, rateLimitErr.RetryAfterSec)))
		ctx.JSON(http.StatusTooManyRequests, gin.H{
			"error": rateLimitErr.Message,
			"code":  rateLimitErr.Code,
		})
		return
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		ctx.JSON(c.getStatusCodeForValidationError(validationErr.Code), gin.H{
			"error": validationErr.Message,
		})
		return
	}

	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log error"})
}

func (c *ErrorLoggingController) getStatusCodeForValidationError(errorCode string) int {
	switch errorCode {
	case ErrorInvalidRequest:
		return http.StatusBadRequest
	case ErrorRateLimitExceeded:
		return http.StatusTooManyRequests
	case ErrorNotConfigured:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
