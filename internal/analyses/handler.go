package analyses

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ats-resume-checker/internal/shared/server/middleware"
	"ats-resume-checker/internal/shared/server/respond"
	"ats-resume-checker/internal/shared/util"
	"ats-resume-checker/internal/uploads"
)

// multipartOverhead is the slack allowed on top of the file cap for form fields and boundaries.
const multipartOverhead = 1 << 20

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc     *Service
	Uploads *uploads.TempStore
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, store *uploads.TempStore) *Handler {
	return &Handler{Svc: svc, Uploads: store}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload-resume", h.uploadResume)
	rg.GET("/report/:id", h.getReport)
}

func (h *Handler) uploadResume(c *gin.Context) {
	maxBytes := h.Uploads.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(c, uploads.ErrFileTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			writeError(c, uploads.ErrNoFile)
		default:
			writeError(c, &ValidationError{Field: "file", Message: "could not read multipart upload"})
		}
		return
	}
	industry := strings.TrimSpace(c.PostForm("industry"))
	c.Set("industry", industry)
	if fh.Size > maxBytes {
		writeError(c, uploads.ErrFileTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	doc, err := h.Uploads.Save(ctx, fh.Filename, f)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.Svc.Run(ctx, doc, industry)
	if err != nil {
		c.Set("statusTransition", "received->"+StatusFailed)
		writeError(c, err)
		return
	}
	c.Set("statusTransition", "received->"+StatusDone)
	if result.ReportID != nil {
		c.Set("reportId", *result.ReportID)
	}
	respond.Data(c, result)
}

func (h *Handler) getReport(c *gin.Context) {
	id := c.Param("id")
	c.Set("reportId", id)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	report, err := h.Svc.GetReport(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Data(c, report)
}

// statusClientClosedRequest is the nginx convention for a caller that went away.
const statusClientClosedRequest = 499

// HTTPStatus maps an error code to its response status.
func HTTPStatus(code string) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeUnsupportedFormat, ErrorCodeInvalidID:
		return http.StatusBadRequest
	case ErrorCodeExtraction:
		return http.StatusUnprocessableEntity
	case ErrorCodeUpstream, ErrorCodeMalformedResponse:
		return http.StatusBadGateway
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrorCodeCanceled:
		return statusClientClosedRequest
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	code := ErrorCode(err)
	status := HTTPStatus(code)
	message := util.SanitizeErrorMessage(err)
	switch code {
	case ErrorCodeInternal:
		message = "failed to analyze resume"
	case ErrorCodeUpstream, ErrorCodeMalformedResponse, ErrorCodeTimeout:
		message = "failed to analyze resume: " + message
	case ErrorCodeUnavailable:
		message = "report storage is unavailable"
	}

	var details any
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr) && validationErr.Field != "":
		details = []map[string]string{{"field": validationErr.Field, "issue": validationErr.Message}}
	case errors.Is(err, uploads.ErrFileTooLarge):
		details = []map[string]string{{"field": "file", "issue": "exceeds the upload size limit"}}
	}
	respond.Error(c, status, code, message, details)
}
