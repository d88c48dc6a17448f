package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pickleball-backend/internal/platform/apierr"
	"github.com/yungbote/pickleball-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope. The request id lets a caller quote a failed call back
// against the server logs.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = "unknown error"
	}
	env := ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		env.Error.RequestID = td.RequestID
	}
	c.AbortWithStatusJSON(status, env)
}

// RespondAPIError writes an already classified error.
func RespondAPIError(c *gin.Context, err *apierr.Error) {
	if err == nil {
		err = apierr.New(http.StatusInternalServerError, "processing_failed", nil)
	}
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	RespondError(c, status, err.Code, err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
