// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"errors"
	"net/http"

	"github.com/ManuGH/playctl/internal/control/http/problem"
	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/log"
)

type apiError struct {
	status int
	typ    string
	title  string
	code   string
}

var (
	errNotFound     = apiError{http.StatusNotFound, "players/not_found", "Not Found", "NOT_FOUND"}
	errGone         = apiError{http.StatusGone, "players/disposed", "Gone", "DISPOSED"}
	errBadRequest   = apiError{http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_REQUEST"}
	errUnsupported  = apiError{http.StatusUnprocessableEntity, "players/unsupported_source", "Unsupported Source", "UNSUPPORTED_SOURCE"}
	errAds          = apiError{http.StatusServiceUnavailable, "players/ads_unavailable", "Ad Insertion Unavailable", "ADS_UNAVAILABLE"}
	errCapacity     = apiError{http.StatusServiceUnavailable, "players/capacity", "Too Many Players", "CAPACITY"}
	errShuttingDown = apiError{http.StatusServiceUnavailable, "system/shutting_down", "Shutting Down", "SHUTTING_DOWN"}
	errEngine       = apiError{http.StatusBadGateway, "players/engine_failed", "Engine Failure", "ENGINE_FAILED"}
)

func writeProblem(w http.ResponseWriter, r *http.Request, e apiError, detail string) {
	problem.Write(w, r, e.status, e.typ, e.title, e.code, detail, nil)
}

// writeError maps domain errors onto problem documents.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e apiError
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		e = errNotFound
	case errors.Is(err, model.ErrDisposed):
		e = errGone
	case errors.Is(err, model.ErrInvalidSpeed):
		e = errBadRequest
	case errors.Is(err, model.ErrUnsupportedSource):
		e = errUnsupported
	case errors.Is(err, model.ErrOverlayUnavailable):
		e = errAds
	case errors.Is(err, session.ErrTooManySessions):
		e = errCapacity
	case errors.Is(err, session.ErrRegistryClosed):
		e = errShuttingDown
	default:
		e = errEngine
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().Err(err).
			Str(log.FieldPath, r.URL.Path).Msg("request failed")
	}
	writeProblem(w, r, e, err.Error())
}
