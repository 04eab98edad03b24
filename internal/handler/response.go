package handler

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"reflect"
	"strings"

	"community_hub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool         `json:"success"`
	Data       any          `json:"data,omitempty"`
	Message    string       `json:"message,omitempty"`
	Error      string       `json:"error,omitempty"`
	Details    []FieldError `json:"details,omitempty"`
	StatusCode int          `json:"statusCode"`
}

type PageResponse struct {
	Success    bool  `json:"success"`
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	StatusCode int   `json:"statusCode"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Response{Success: true, Data: data, Message: message, StatusCode: status})
}

func respondPage(c *gin.Context, items any, total int64, page, limit int) {
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	c.JSON(http.StatusOK, PageResponse{
		Success:    true,
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
		StatusCode: http.StatusOK,
	})
}

func respondFail(c *gin.Context, status int, msg string, details []FieldError) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: msg, Details: details, StatusCode: status})
}

// respondError maps a service error to its status. Unclassified errors are
// logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	status := statusForKind(service.KindOf(err))
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("path", c.Request.URL.Path),
			slog.Any("err", err))
	}
	respondFail(c, status, service.MessageOf(err), nil)
}

func statusForKind(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindAuth:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the body into req and runs its validate tags. On failure
// it has already written the 400 response.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if details := validateRequest(req); len(details) > 0 {
		respondFail(c, http.StatusBadRequest, "Invalid request data", details)
		return false
	}
	return true
}

func validateRequest(req any) []FieldError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error(), Type: "invalid"}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe), Type: fe.Tag()})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "oneof":
		return "Value must be one of " + fe.Param()
	default:
		return "Invalid value"
	}
}
