package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/traderouter/internal/upstream"
	"github.com/iudanet/traderouter/pkg/api"
)

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// sendUpstreamError отправляет ошибку внешнего сервиса со статусом по ее категории
func sendUpstreamError(logger *slog.Logger, w http.ResponseWriter, err error) {
	kind := upstream.Classify(err)
	status := kind.HTTPStatus()
	resp := api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: kind.Message(),
		Kind:    kind.String(),
	}
	sendJSON(logger, w, resp, status)
}
