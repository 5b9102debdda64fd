package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/marblesim/marble-game/internal/calculation"
	"github.com/marblesim/marble-game/internal/config"
	"github.com/marblesim/marble-game/internal/domain"
	"github.com/marblesim/marble-game/internal/output"
	"github.com/shopspring/decimal"
)

// OutcomeRequest is one marble in a request body.
type OutcomeRequest struct {
	Label       string  `json:"label"`
	Color       string  `json:"color,omitempty"`
	Probability float64 `json:"probability"`
	Multiplier  float64 `json:"multiplier"`
}

// PlayerRequest is one comparison participant.
type PlayerRequest struct {
	Name        string  `json:"name"`
	Objective   string  `json:"objective,omitempty"`
	RiskPercent float64 `json:"risk_percent"`
}

// SimulationRequest is the body accepted by every simulation endpoint.
// Zero values fall back to the configuration defaults; Outcomes take
// precedence over Preset.
type SimulationRequest struct {
	Preset           string           `json:"preset,omitempty"`
	ProbabilityScale string           `json:"probability_scale,omitempty"`
	Outcomes         []OutcomeRequest `json:"outcomes,omitempty"`
	StartingEquity   float64          `json:"starting_equity,omitempty"`
	RiskPercent      float64          `json:"risk_percent,omitempty"`
	Draws            int              `json:"draws,omitempty"`
	Simulations      int              `json:"simulations,omitempty"`
	HistogramBuckets int              `json:"histogram_buckets,omitempty"`
	Players          []PlayerRequest  `json:"players,omitempty"`
	Seed             int64            `json:"seed,omitempty"`
}

// RunResponse wraps a report with the id assigned to the request.
type RunResponse struct {
	ID string `json:"id"`
	output.Report
}

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Error kinds that are not configuration errors.
const (
	kindBadRequest    = "bad_request"
	kindInvalidConfig = "invalid_config"
	kindLimitExceeded = "limit_exceeded"
	kindRateLimited   = "rate_limited"
	kindCancelled     = "cancelled"
	kindInternal      = "internal"
)

// errLimitExceeded rejects requests larger than the server allows.
var errLimitExceeded = errors.New("request exceeds server limits")

// simulation is a validated request ready to run.
type simulation struct {
	config  *domain.Configuration
	dist    *calculation.Distribution
	params  domain.RunParameters
	players []domain.Player
}

// configuration converts the request into the file configuration model.
func (req SimulationRequest) configuration() *domain.Configuration {
	cfg := &domain.Configuration{
		Preset:           req.Preset,
		ProbabilityScale: req.ProbabilityScale,
		Run: domain.RunConfig{
			StartingEquity: decimal.NewFromFloat(req.StartingEquity),
			RiskPercent:    decimal.NewFromFloat(req.RiskPercent),
			Draws:          req.Draws,
		},
		MonteCarlo: domain.MonteCarloConfig{
			Simulations:      req.Simulations,
			HistogramBuckets: req.HistogramBuckets,
			Seed:             req.Seed,
		},
	}
	for _, o := range req.Outcomes {
		cfg.Outcomes = append(cfg.Outcomes, domain.OutcomeConfig{
			Label:       o.Label,
			Color:       o.Color,
			Probability: decimal.NewFromFloat(o.Probability),
			Multiplier:  decimal.NewFromFloat(o.Multiplier),
		})
	}
	for _, p := range req.Players {
		cfg.Players = append(cfg.Players, domain.PlayerConfig{
			Name:        p.Name,
			Objective:   p.Objective,
			RiskPercent: decimal.NewFromFloat(p.RiskPercent),
		})
	}
	return cfg
}

// prepare applies defaults, validates and enforces the server limits.
func (s *Server) prepare(req SimulationRequest) (*simulation, error) {
	cfg := req.configuration()
	config.ApplyDefaults(cfg)
	if err := config.NewInputParser().ValidateConfiguration(cfg); err != nil {
		return nil, err
	}

	if cfg.Run.Draws > s.cfg.MaxDraws {
		return nil, fmt.Errorf("%w: draws %d > %d", errLimitExceeded, cfg.Run.Draws, s.cfg.MaxDraws)
	}
	if cfg.MonteCarlo.Simulations > s.cfg.MaxSimulations {
		return nil, fmt.Errorf("%w: simulations %d > %d", errLimitExceeded, cfg.MonteCarlo.Simulations, s.cfg.MaxSimulations)
	}

	if cfg.MonteCarlo.HistogramBuckets > s.cfg.MaxBuckets {
		return nil, fmt.Errorf("%w: histogram_buckets %d > %d", errLimitExceeded, cfg.MonteCarlo.HistogramBuckets, s.cfg.MaxBuckets)
	}

	dist, err := config.BuildDistribution(cfg)
	if err != nil {
		return nil, err
	}
	return &simulation{
		config:  cfg,
		dist:    dist,
		params:  cfg.Run.RunParameters(),
		players: config.Players(cfg),
	}, nil
}

// seed returns the requested seed or a fresh one, so responses can always report it.
func (sim *simulation) seed() int64 {
	if sim.config.MonteCarlo.Seed != 0 {
		return sim.config.MonteCarlo.Seed
	}
	return calculation.DefaultSeed()
}

// requestErrorKind names a rejected request. Every error from prepare is a client error.
func requestErrorKind(err error) string {
	var cfgErr *domain.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return cfgErr.Kind.String()
	case errors.Is(err, errLimitExceeded):
		return kindLimitExceeded
	default:
		return kindInvalidConfig
	}
}

// runErrorStatus maps an error returned while a simulation runs.
func runErrorStatus(err error) (int, string) {
	var cfgErr *domain.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest, cfgErr.Kind.String()
	case errors.Is(err, calculation.ErrSimulationCancelled):
		return http.StatusServiceUnavailable, kindCancelled
	default:
		return http.StatusInternalServerError, kindInternal
	}
}
