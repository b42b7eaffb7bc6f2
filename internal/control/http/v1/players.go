// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/log"
)

func toStatus(st session.Status) PlayerStatus {
	return PlayerStatus{
		ID:          st.ID,
		TextureID:   st.TextureID,
		StreamType:  string(st.StreamType),
		URI:         st.URI,
		OpenedAt:    st.OpenedAt,
		Phase:       string(st.Phase),
		Initialized: st.Initialized,
		Buffering:   st.Buffering,
		AdActive:    st.AdActive,
		Position:    st.PositionMs,
		Duration:    st.DurationMs,
		Listening:   st.Listening,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := decode(w, r, &req); err != nil {
		writeProblem(w, r, errBadRequest, err.Error())
		return
	}

	sess, err := s.registry.Open(r.Context(), session.Options{
		URI:           req.URI,
		FormatHint:    req.FormatHint,
		Headers:       req.HTTPHeaders,
		AdTag:         req.AdTag,
		MixWithOthers: req.MixWithOthers,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "player.created").
		Str(log.FieldSessionID, sess.ID()).
		Int64(log.FieldTextureID, sess.TextureID()).
		Msg("player created")

	w.Header().Set("Location", "/api/v1/players/"+sess.ID())
	writeJSON(w, r, http.StatusCreated, CreatePlayerResponse{
		ID:         sess.ID(),
		TextureID:  sess.TextureID(),
		StreamType: string(sess.Source().Type),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	sessions := s.registry.List()
	out := PlayerList{Players: make([]PlayerStatus, 0, len(sessions))}
	for _, sess := range sessions {
		out.Players = append(out.Players, toStatus(sess.Status()))
	}
	writeJSON(w, r, http.StatusOK, out)
}

// withSession resolves {id} and runs fn; errors are rendered.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	sess, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := fn(sess); err != nil {
		writeError(w, r, err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) error {
		writeJSON(w, r, http.StatusOK, toStatus(sess.Status()))
		return nil
	})
}

func (s *Server) handleDispose(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Dispose(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// command runs a body-less command and answers 204.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	s.withSession(w, r, func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	})
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*session.Session).Play)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, (*session.Session).Pause)
}

func (s *Server) handleLooping(w http.ResponseWriter, r *http.Request) {
	var body BoolValue
	if err := decode(w, r, &body); err != nil || body.Value == nil {
		writeProblem(w, r, errBadRequest, detail(err, "value is required"))
		return
	}
	s.command(w, r, func(sess *session.Session) error { return sess.SetLooping(*body.Value) })
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var body FloatValue
	if err := decode(w, r, &body); err != nil || body.Value == nil {
		writeProblem(w, r, errBadRequest, detail(err, "value is required"))
		return
	}
	s.command(w, r, func(sess *session.Session) error { return sess.SetVolume(*body.Value) })
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var body FloatValue
	if err := decode(w, r, &body); err != nil || body.Value == nil {
		writeProblem(w, r, errBadRequest, detail(err, "value is required"))
		return
	}
	s.command(w, r, func(sess *session.Session) error { return sess.SetPlaybackSpeed(*body.Value) })
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var body SeekRequest
	if err := decode(w, r, &body); err != nil || body.Position == nil {
		writeProblem(w, r, errBadRequest, detail(err, "position is required"))
		return
	}
	s.command(w, r, func(sess *session.Session) error { return sess.SeekTo(*body.Position) })
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) error {
		pos, err := sess.Position()
		if err != nil {
			return err
		}
		writeJSON(w, r, http.StatusOK, PositionResponse{Position: pos})
		return nil
	})
}

func detail(err error, fallback string) string {
	if err != nil {
		return err.Error()
	}
	return fallback
}
