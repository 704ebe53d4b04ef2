package utils

import (
	"net/http"

	apperrors "order-dispatch/pkg/errors"
)

type errorMapping struct {
	Err  error
	Code int
}

// ErrorList - соответствие доменных ошибок HTTP-кодам; порядок важен для обёрнутых ошибок.
var ErrorList = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrUnknownRole, http.StatusBadRequest},
	{apperrors.ErrCourierRequired, http.StatusBadRequest},
	{apperrors.ErrInvalidStatus, http.StatusBadRequest},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
	{apperrors.ErrOrderAlreadyTaken, http.StatusConflict},
	{apperrors.ErrOrderNotReady, http.StatusConflict},
	{apperrors.ErrSessionClosed, http.StatusGone},
	{apperrors.ErrFetchFailed, http.StatusBadGateway},
	{apperrors.ErrRealtimeUnavailable, http.StatusServiceUnavailable},
}
