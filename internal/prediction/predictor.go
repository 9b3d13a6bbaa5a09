// Package prediction produces live suggestions from stored history.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"lotofacil-lab/internal/domain"
	"lotofacil-lab/internal/features"
	"lotofacil-lab/internal/idhash"
	"lotofacil-lab/internal/model"
	"lotofacil-lab/internal/observability"
	"lotofacil-lab/internal/selector"
	"lotofacil-lab/internal/storage"
)

// Request describes one live prediction.
type Request struct {
	TargetDrawID int64 // 0 means the draw after the newest stored one
	UserID       int64
	ForceRetrain bool
}

// Response is the outcome of a prediction.
type Response struct {
	Suggestion *domain.Suggestion `json:"suggestion"`
	Ranking    []selector.Ranked  `json:"ranking"`
	Saved      bool               `json:"saved"` // false when an identical suggestion existed
}

// Options configures a Predictor.
type Options struct {
	MinHistory int
	Logger     *log.Logger
	Clock      func() time.Time
}

// Predictor wires history, features, the model bank and the selector.
type Predictor struct {
	draws       storage.DrawStore
	suggestions storage.SuggestionStore // nil disables saving
	bank        *model.Bank
	opts        Options
}

// NewPredictor creates a predictor.
func NewPredictor(draws storage.DrawStore, suggestions storage.SuggestionStore, bank *model.Bank, opts Options) *Predictor {
	if opts.MinHistory <= 0 {
		opts.MinHistory = selector.DefaultMinHistory
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Predictor{draws: draws, suggestions: suggestions, bank: bank, opts: opts}
}

// Predict suggests DrawSize numbers for the target draw.
// Returns domain.ErrInsufficientData when history is too short.
func (p *Predictor) Predict(ctx context.Context, req Request) (*Response, error) {
	resp, err := p.predict(ctx, req)
	switch {
	case err == nil:
		observability.RecordPrediction("ok")
	case errors.Is(err, domain.ErrInsufficientData):
		observability.RecordPrediction("insufficient_data")
	default:
		observability.RecordPrediction("error")
	}
	return resp, err
}

func (p *Predictor) predict(ctx context.Context, req Request) (*Response, error) {
	all, err := p.draws.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list draws: %w", storage.ErrUnavailable, err)
	}

	target := req.TargetDrawID
	if target == 0 {
		target = 1
		if len(all) > 0 {
			target = all[len(all)-1].ID + 1
		}
	}
	history := priorTo(all, target)

	if err := selector.CheckHistory(len(history), p.opts.MinHistory); err != nil {
		return nil, err
	}

	table, err := features.Build(history)
	if err != nil {
		return nil, fmt.Errorf("build features: %w", err)
	}
	row, err := table.Latest()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInsufficientData, err)
	}

	bank, err := p.bank.LoadOrTrainAll(ctx, table, req.ForceRetrain)
	if err != nil {
		return nil, err
	}
	probs, err := model.PredictAll(bank, row)
	if err != nil {
		return nil, err
	}
	ranking, err := selector.Rank(probs)
	if err != nil {
		return nil, err
	}
	numbers, err := selector.Select(probs)
	if err != nil {
		return nil, err
	}

	s := &domain.Suggestion{
		ID:        idhash.ComputeSuggestionID(req.UserID, target, domain.StrategyMachineLearning, numbers),
		UserID:    req.UserID,
		DrawID:    target,
		Strategy:  domain.StrategyMachineLearning,
		Numbers:   numbers,
		CreatedAt: p.opts.Clock().UTC(),
	}
	resp := &Response{Suggestion: s, Ranking: ranking}

	if p.suggestions != nil {
		saved, err := p.suggestions.Append(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("%w: save suggestion: %w", storage.ErrUnavailable, err)
		}
		resp.Saved = saved
	}

	p.opts.Logger.Printf("draw %d: suggested %v from %d draws", target, numbers, len(history))
	return resp, nil
}

// priorTo returns the draws with id < target. all is ascending.
func priorTo(all []domain.Draw, target int64) []domain.Draw {
	n := 0
	for n < len(all) && all[n].ID < target {
		n++
	}
	return all[:n:n]
}
