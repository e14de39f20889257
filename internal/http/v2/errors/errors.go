// Package errors resuelve los errores HTTP del servicio: JSON (AppError) para las
// rutas de API y redirects a sign-in para las rutas del flujo.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/memberbridge/internal/observability/logger"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// WriteError escribe err como JSON. Cualquier error que no sea *AppError sale como 500
// sin exponer su texto.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// Respond es WriteError más el log de la causa para 5xx, con el logger del request.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed",
			logger.ErrorCode(appErr.Code),
			logger.Status(appErr.HTTPStatus),
			logger.Err(appErr.Err),
		)
	}
	WriteError(w, appErr)
}
