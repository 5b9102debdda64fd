package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/marblesim/marble-game/internal/output"
	"go.uber.org/zap"
)

// Stream message types.
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// StreamMessage is sent to Monte Carlo stream clients.
type StreamMessage struct {
	Type      string         `json:"type"`
	ID        string         `json:"id"`
	Completed int            `json:"completed,omitempty"`
	Total     int            `json:"total,omitempty"`
	Report    *output.Report `json:"report,omitempty"`
	Error     string         `json:"error,omitempty"`
	Kind      string         `json:"kind,omitempty"`
}

const streamWriteWait = 10 * time.Second

// handleMonteCarloStream upgrades to a WebSocket, reads one SimulationRequest,
// then sends a progress message after every batch followed by a single result
// or error message. Closing the socket cancels the run.
func (s *Server) handleMonteCarloStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.metrics.streamsActive.Inc()
	defer s.metrics.streamsActive.Dec()

	id := uuid.New().String()
	send := func(msg StreamMessage) error {
		msg.ID = id
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(msg)
	}

	conn.SetReadLimit(maxBodyBytes)
	var req SimulationRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.metrics.observe(kindMonteCarlo, statusRejected, 0, 0)
		_ = send(StreamMessage{Type: MessageError, Error: "invalid JSON request: " + err.Error(), Kind: kindBadRequest})
		return
	}
	sim, err := s.prepare(req)
	if err != nil {
		s.metrics.observe(kindMonteCarlo, statusRejected, 0, 0)
		_ = send(StreamMessage{Type: MessageError, Error: err.Error(), Kind: requestErrorKind(err)})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// the client sends nothing more; a read error means it went away
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	seed := sim.seed()
	mc := sim.config.MonteCarlo
	s.logger.Info("monte carlo stream started", zap.String("id", id), zap.Int("simulations", mc.Simulations))

	start := time.Now()
	result, err := s.engine.RunMonteCarlo(ctx, sim.dist, sim.params, mc.Simulations, mc.HistogramBuckets, seed,
		func(completed, total int) {
			if err := send(StreamMessage{Type: MessageProgress, Completed: completed, Total: total}); err != nil {
				cancel()
			}
		})
	if err != nil {
		_, kind := runErrorStatus(err)
		s.metrics.observe(kindMonteCarlo, statusFailed, 0, 0)
		s.logger.Warn("monte carlo stream failed", zap.String("id", id), zap.Error(err))
		_ = send(StreamMessage{Type: MessageError, Error: err.Error(), Kind: kind})
		return
	}
	s.metrics.observe(kindMonteCarlo, statusOK, time.Since(start).Seconds(), mc.Simulations*sim.params.DrawCount)

	_ = send(StreamMessage{Type: MessageResult, Report: &output.Report{
		Seed:       seed,
		Outcomes:   sim.dist.Outcomes(),
		MonteCarlo: result,
	}})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(streamWriteWait))
}
