package apierr

import (
	"errors"
	"fmt"
	"net/http"

	perrors "github.com/yungbote/pickleball-backend/internal/pkg/errors"
)

const GenericMessage = "Video processing failed"

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromPipeline maps a classified pipeline error onto an HTTP status and stable code.
// Only benign kinds keep their message; faults are reduced to GenericMessage.
func FromPipeline(err error) *Error {
	if err == nil {
		return nil
	}
	var pe *perrors.Error
	if !errors.As(err, &pe) {
		return New(http.StatusInternalServerError, "processing_failed", errors.New(GenericMessage))
	}
	switch pe.Kind {
	case perrors.KindValidation:
		return New(http.StatusBadRequest, "invalid_submission", errors.New(pe.Msg))
	case perrors.KindRejection:
		return New(http.StatusUnprocessableEntity, "analysis_rejected", errors.New(pe.Msg))
	case perrors.KindGateway:
		return New(http.StatusBadGateway, "analysis_unavailable", errors.New(GenericMessage))
	default:
		return New(http.StatusInternalServerError, "processing_failed", errors.New(GenericMessage))
	}
}
