package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hagwon-ops/timetable-api/internal/models"
	appErrors "github.com/hagwon-ops/timetable-api/pkg/errors"
)

// ReasonSameClassType is the default reason when a type meets itself without
// an explicit rule.
const ReasonSameClassType = "same class type"

type compatibilityRepository interface {
	FindPair(ctx context.Context, typeA, typeB string) (*models.CompatibilityRule, error)
	List(ctx context.Context) ([]models.CompatibilityRule, error)
	Upsert(ctx context.Context, rule *models.CompatibilityRule) error
}

// UpsertCompatibilityRuleRequest describes a rule table entry.
type UpsertCompatibilityRuleRequest struct {
	TypeA      string `json:"type_a" validate:"required"`
	TypeB      string `json:"type_b" validate:"required"`
	Compatible bool   `json:"compatible"`
	Reason     string `json:"reason"`
}

// CompatibilityService answers whether two class types may overlap for one
// instructor. The rule table is configuration data, not code.
type CompatibilityService struct {
	repo      compatibilityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompatibilityService constructs CompatibilityService.
func NewCompatibilityService(repo compatibilityRepository, validate *validator.Validate, logger *zap.Logger) *CompatibilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompatibilityService{repo: repo, validator: validate, logger: logger}
}

// Resolve looks up compatibility for (candidateType, existingType). Lookup
// order: exact pair, then reversed pair, then same-type default, then
// incompatible with a generated reason naming the missing rule. An explicit
// rule in one direction always beats one recorded only in reverse.
func (s *CompatibilityService) Resolve(ctx context.Context, candidateType, existingType string) (bool, string, error) {
	rule, err := s.repo.FindPair(ctx, candidateType, existingType)
	if err == sql.ErrNoRows {
		rule, err = s.repo.FindPair(ctx, existingType, candidateType)
	}
	if err == sql.ErrNoRows {
		if candidateType == existingType {
			return true, ReasonSameClassType, nil
		}
		return false, fmt.Sprintf("no compatibility rule defined for %s vs %s", candidateType, existingType), nil
	}
	if err != nil {
		return false, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve compatibility")
	}

	reason := rule.Reason
	if reason == "" {
		if rule.Compatible {
			reason = fmt.Sprintf("%s and %s may share a slot", rule.TypeA, rule.TypeB)
		} else {
			reason = fmt.Sprintf("%s and %s may not share a slot", rule.TypeA, rule.TypeB)
		}
	}
	return rule.Compatible, reason, nil
}

// List returns the whole rule table.
func (s *CompatibilityService) List(ctx context.Context) ([]models.CompatibilityRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list compatibility rules")
	}
	return rules, nil
}

// UpsertRule stores a rule, rejecting configurations where both directions of
// a pair would disagree; lookup order would otherwise make the result depend
// on which direction is asked first.
func (s *CompatibilityService) UpsertRule(ctx context.Context, req UpsertCompatibilityRuleRequest) (*models.CompatibilityRule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid compatibility rule payload")
	}

	if req.TypeA != req.TypeB {
		reverse, err := s.repo.FindPair(ctx, req.TypeB, req.TypeA)
		if err != nil && err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate compatibility rule")
		}
		if err == nil && reverse.Compatible != req.Compatible {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("rule contradicts existing %s vs %s rule; update that direction instead", req.TypeB, req.TypeA))
		}
	}

	rule := &models.CompatibilityRule{TypeA: req.TypeA, TypeB: req.TypeB, Compatible: req.Compatible, Reason: req.Reason}
	if err := s.repo.Upsert(ctx, rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store compatibility rule")
	}
	return rule, nil
}
