package service

import (
	"context"
	"slices"

	"github.com/bwmarrin/snowflake"
	"github.com/closebytel/closeby/internal/clock"
	onboardingdomain "github.com/closebytel/closeby/internal/onboarding/domain"
	"github.com/closebytel/closeby/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  onboardingdomain.Repository
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  onboardingdomain.Repository
	clock clock.Clock
}

func New(p Params) onboardingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("onboarding.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: p.Clock,
	}
}

func (s *Service) Get(ctx context.Context, userID snowflake.ID) (*onboardingdomain.Onboarding, error) {
	row, err := s.repo.FindByUserID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if row != nil {
		return row, nil
	}

	now := s.clock.Now()
	row = &onboardingdomain.Onboarding{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Steps:     datatypes.NewJSONType(emptySteps()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		// Concurrent first read created the row; use it.
		if db.IsDuplicateKeyErr(err) {
			return s.repo.FindByUserID(ctx, s.db, userID)
		}
		return nil, err
	}
	return row, nil
}

func (s *Service) CompleteStep(ctx context.Context, userID snowflake.ID, step string) (*onboardingdomain.Onboarding, error) {
	if !slices.Contains(onboardingdomain.KnownSteps, step) {
		return nil, onboardingdomain.ErrUnknownStep
	}

	row, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	steps := row.Steps.Data()
	if steps == nil {
		steps = emptySteps()
	}
	if steps[step] {
		return row, nil
	}
	steps[step] = true

	now := s.clock.Now()
	row.Steps = datatypes.NewJSONType(steps)
	row.UpdatedAt = now
	if allDone(steps) && row.CompletedAt == nil {
		row.CompletedAt = &now
	}
	if err := s.repo.Update(ctx, s.db, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) Reset(ctx context.Context, userID snowflake.ID) (*onboardingdomain.Onboarding, error) {
	row, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	row.Steps = datatypes.NewJSONType(emptySteps())
	row.CompletedAt = nil
	row.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, row); err != nil {
		return nil, err
	}
	return row, nil
}

func emptySteps() onboardingdomain.Steps {
	steps := make(onboardingdomain.Steps, len(onboardingdomain.KnownSteps))
	for _, name := range onboardingdomain.KnownSteps {
		steps[name] = false
	}
	return steps
}

func allDone(steps onboardingdomain.Steps) bool {
	for _, name := range onboardingdomain.KnownSteps {
		if !steps[name] {
			return false
		}
	}
	return true
}
