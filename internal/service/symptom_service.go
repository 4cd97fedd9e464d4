package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Skufu/symptom-checker/internal/llm"
	"github.com/Skufu/symptom-checker/internal/prompt"
	"github.com/Skufu/symptom-checker/internal/store"
	"github.com/Skufu/symptom-checker/internal/suggestion"
)

// HistoryLimit caps the number of records returned by History.
const HistoryLimit = 10

// persistTimeout bounds the insert. The insert ignores request cancellation.
const persistTimeout = 5 * time.Second

var (
	ErrEmptySymptoms      = errors.New("symptom input cannot be empty")
	ErrGatewayUnavailable = errors.New("llm gateway unavailable")
	ErrMalformedResponse  = errors.New("model response failed validation")
	ErrPersistenceFailed  = errors.New("failed to persist symptom query")
)

// Repository is the persistence contract the service depends on.
type Repository interface {
	Insert(ctx context.Context, symptoms string, resp suggestion.DiagnosticSuggestion) (store.SymptomQuery, error)
	ListRecent(ctx context.Context, limit int) ([]store.SymptomQuery, error)
}

// Result is the outcome of a symptom check. Suggestion is set whenever the
// model reply validated, including when persisting it failed afterwards.
type Result struct {
	Suggestion *suggestion.DiagnosticSuggestion
	Record     *store.SymptomQuery
}

type SymptomService struct {
	gateway llm.Gateway
	repo    Repository
	log     *zap.Logger
}

func NewSymptomService(gateway llm.Gateway, repo Repository, log *zap.Logger) *SymptomService {
	return &SymptomService{gateway: gateway, repo: repo, log: log.Named("symptom_service")}
}

// Check runs prompt → gateway → sanitizer/validator → store. Each failure is
// terminal; nothing is retried.
func (s *SymptomService) Check(ctx context.Context, symptoms string) (Result, error) {
	symptoms = strings.TrimSpace(symptoms)
	if symptoms == "" {
		s.log.Debug("rejected empty symptom input")
		return Result{}, ErrEmptySymptoms
	}

	raw, err := s.gateway.Generate(ctx, prompt.Build(symptoms))
	if err != nil {
		s.log.Error("llm call failed", zap.String("provider", s.gateway.Name()), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
	}

	parsed, err := suggestion.Parse(raw)
	if err != nil {
		s.log.Error("llm reply rejected",
			zap.String("provider", s.gateway.Name()),
			zap.Error(err),
			zap.String("raw_reply", raw),
		)
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	res := Result{Suggestion: &parsed}
	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	record, err := s.repo.Insert(insertCtx, symptoms, parsed)
	if err != nil {
		s.log.Error("persisting symptom query failed", zap.Error(err))
		return res, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	res.Record = &record

	s.log.Info("symptom check completed", zap.Int64("id", record.ID))
	return res, nil
}

// History returns the most recent records, newest first.
func (s *SymptomService) History(ctx context.Context) ([]store.SymptomQuery, error) {
	records, err := s.repo.ListRecent(ctx, HistoryLimit)
	if err != nil {
		s.log.Error("listing history failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return records, nil
}
