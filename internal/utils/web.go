package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	internal_errors "github.com/curator-cms/curator/internal/errors"
	"github.com/curator-cms/curator/internal/logger"
)

// WriteErrorAndStatusCode maps the error taxonomy to HTTP status codes.
// Unknown errors default to 500.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := err.(*internal_errors.ErrorWithStatusCode); ok {
		http.Error(w, err.Error(), e.StatusCode)
		return
	}

	switch {
	case internal_errors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case internal_errors.Is[*internal_errors.ValidationError](err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case internal_errors.Is[*internal_errors.AuthorizationError](err):
		http.Error(w, err.Error(), http.StatusForbidden)
	case internal_errors.Is[*internal_errors.RetrievalError](err):
		http.Error(w, err.Error(), http.StatusBadGateway)
	case internal_errors.Is[*internal_errors.ConfigurationError](err),
		internal_errors.Is[*internal_errors.RelationTypeMismatchError](err):
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func DecodeValidate(r io.ReadCloser, body any) error {
	if err := json.NewDecoder(r).Decode(body); err != nil {
		logger.Log.Debug("invalid json body", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Body is invalid json", StatusCode: 400}
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(body); err != nil {
		logger.Log.Debug("body validation failed", "error", err)
		return &internal_errors.ErrorWithStatusCode{Message: "Required fields missing", StatusCode: 400}
	}
	return nil
}
