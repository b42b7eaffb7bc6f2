// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ManuGH/playctl/internal/domain/playback/model"
	"github.com/ManuGH/playctl/internal/domain/playback/session"
	"github.com/ManuGH/playctl/internal/log"
)

// outbox is an unbounded FIFO between the event sink and the socket
// writer. Deliver never blocks and never drops.
type outbox struct {
	mu     sync.Mutex
	queue  []model.Event
	notify chan struct{}
}

func newOutbox() *outbox {
	return &outbox{notify: make(chan struct{}, 1)}
}

func (o *outbox) Deliver(ev model.Event) {
	o.mu.Lock()
	o.queue = append(o.queue, ev)
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *outbox) take() []model.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	q := o.queue
	o.queue = nil
	return q
}

// handleEvents upgrades to a websocket and streams the player's events. The
// connection is the player's delegate while it is open; closing it detaches
// the delegate unless another stream has replaced it.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) error {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already answered the client.
			return nil
		}
		logger := log.WithComponentFromContext(r.Context(), "api.events").With().
			Str(log.FieldSessionID, sess.ID()).Logger()
		s.stream(r.Context(), conn, sess, logger)
		return nil
	})
}

func (s *Server) stream(ctx context.Context, conn *websocket.Conn, sess *session.Session, logger zerolog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	box := newOutbox()
	token := sess.Attach(box)
	logger.Debug().Str(log.FieldEvent, "events.attached").Msg("event stream attached")

	defer func() {
		replaced := !sess.DetachIf(token)
		_ = conn.Close()
		logger.Debug().Str(log.FieldEvent, "events.detached").Bool("replaced", replaced).Msg("event stream closed")
	}()

	// Reader: answers control frames and notices the peer going away.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		conn.SetReadLimit(4096)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		cancel()
		_ = conn.Close()
		<-readDone
	}()

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readDone:
			return
		case <-box.notify:
			for _, ev := range box.take() {
				if err := s.writeEvent(conn, ev); err != nil {
					logger.Debug().Err(err).Msg("event write failed")
					return
				}
			}
		case <-ping.C:
			if sess.Phase() != session.PhaseOpen {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "player disposed"),
					time.Now().Add(s.writeTimeout))
				return
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
