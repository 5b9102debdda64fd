package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/config"
	"github.com/marblesim/marble-game/internal/output"
	"go.uber.org/zap"
)

const (
	kindSingle     = "single"
	kindMonteCarlo = "montecarlo"
	kindCompare    = "compare"

	statusOK       = "ok"
	statusRejected = "rejected"
	statusFailed   = "failed"

	maxBodyBytes = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// presetResponse adds the theoretical expectancy to a preset.
type presetResponse struct {
	config.Preset
	WinProbabilityPercent float64 `json:"win_probability_percent"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets := config.Presets()
	out := make([]presetResponse, 0, len(presets))
	for _, p := range presets {
		resp := presetResponse{Preset: p}
		if dist, err := calculation.ValidateDistribution(p.Outcomes); err == nil {
			resp.WinProbabilityPercent = dist.WinProbabilityPercent()
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

// decode reads a SimulationRequest body and prepares it. It writes the error
// response itself and returns nil when the request is rejected.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, kind string) *simulation {
	var req SimulationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.metrics.observe(kind, statusRejected, 0, 0)
		writeError(w, http.StatusBadRequest, kindBadRequest, "invalid JSON body: "+err.Error())
		return nil
	}
	sim, err := s.prepare(req)
	if err != nil {
		s.metrics.observe(kind, statusRejected, 0, 0)
		writeError(w, http.StatusBadRequest, requestErrorKind(err), err.Error())
		return nil
	}
	return sim
}

func (s *Server) fail(w http.ResponseWriter, kind string, err error) {
	status, errKind := runErrorStatus(err)
	s.metrics.observe(kind, statusFailed, 0, 0)
	s.logger.Warn("simulation failed", zap.String("kind", kind), zap.Error(err))
	writeError(w, status, errKind, err.Error())
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	sim := s.decode(w, r, kindSingle)
	if sim == nil {
		return
	}
	seed := sim.seed()
	start := time.Now()
	result, err := s.engine.RunSingle(sim.dist, sim.params, seed)
	if err != nil {
		s.fail(w, kindSingle, err)
		return
	}
	s.metrics.observe(kindSingle, statusOK, time.Since(start).Seconds(), sim.params.DrawCount)

	perf := calculation.Analyze(*result)
	writeJSON(w, http.StatusOK, RunResponse{
		ID: uuid.New().String(),
		Report: output.Report{
			Seed:        seed,
			Outcomes:    sim.dist.Outcomes(),
			Single:      result,
			Performance: &perf,
		},
	})
}

func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	sim := s.decode(w, r, kindMonteCarlo)
	if sim == nil {
		return
	}
	seed := sim.seed()
	id := uuid.New().String()
	mc := sim.config.MonteCarlo

	start := time.Now()
	result, err := s.engine.RunMonteCarlo(r.Context(), sim.dist, sim.params, mc.Simulations, mc.HistogramBuckets, seed, nil)
	if err != nil {
		s.fail(w, kindMonteCarlo, err)
		return
	}
	s.metrics.observe(kindMonteCarlo, statusOK, time.Since(start).Seconds(), mc.Simulations*sim.params.DrawCount)
	s.logger.Info("monte carlo served", zap.String("id", id), zap.Int("simulations", mc.Simulations))

	writeJSON(w, http.StatusOK, RunResponse{
		ID: id,
		Report: output.Report{
			Seed:       seed,
			Outcomes:   sim.dist.Outcomes(),
			MonteCarlo: result,
		},
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	sim := s.decode(w, r, kindCompare)
	if sim == nil {
		return
	}
	seed := sim.seed()
	start := time.Now()
	result, err := s.engine.RunComparison(sim.dist, sim.params.StartingEquity, sim.params.DrawCount, sim.players, seed)
	if err != nil {
		s.fail(w, kindCompare, err)
		return
	}
	s.metrics.observe(kindCompare, statusOK, time.Since(start).Seconds(), sim.params.DrawCount)

	writeJSON(w, http.StatusOK, RunResponse{
		ID: uuid.New().String(),
		Report: output.Report{
			Seed:       seed,
			Outcomes:   sim.dist.Outcomes(),
			Comparison: result,
		},
	})
}
