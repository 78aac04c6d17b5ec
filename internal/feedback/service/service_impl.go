package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	"github.com/closebytel/closeby/internal/clock"
	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	"github.com/closebytel/closeby/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// One user can file at most this many feedbacks per window.
const (
	sendRate   = 5
	sendWindow = time.Hour
)

var validTags = map[string]bool{
	feedbackdomain.TagBug:     true,
	feedbackdomain.TagFeature: true,
	feedbackdomain.TagRating:  true,
	feedbackdomain.TagOther:   true,
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      feedbackdomain.Repository
	Limiter   *ratelimit.FixedWindow `optional:"true"`
	Analytics analyticsdomain.Service
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      feedbackdomain.Repository
	limiter   *ratelimit.FixedWindow
	analytics analyticsdomain.Service
	clock     clock.Clock
}

func New(p Params) feedbackdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("feedback.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		limiter:   p.Limiter,
		analytics: p.Analytics,
		clock:     p.Clock,
	}
}

func (s *Service) Send(ctx context.Context, userID snowflake.ID, req feedbackdomain.SendRequest) (*feedbackdomain.Feedback, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	result, err := s.limiter.Allow(ctx, "feedback:send:"+userID.String(), sendRate, sendWindow)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return nil, feedbackdomain.ErrRateLimited
	}

	row := &feedbackdomain.Feedback{
		ID:             s.genID.Generate(),
		UserID:         userID,
		Email:          req.Email,
		Title:          req.Title,
		Content:        req.Content,
		Tag:            req.Tag,
		URLs:           datatypes.NewJSONSlice(req.URLs),
		AttachmentURLs: datatypes.NewJSONSlice(req.AttachmentURLs),
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, row); err != nil {
		return nil, err
	}

	s.analytics.Track(ctx, analyticsdomain.TrackRequest{
		Name:       "feedback.sent",
		DistinctID: userID.String(),
		Properties: map[string]any{"tag": row.Tag},
	})
	return row, nil
}

func validate(req *feedbackdomain.SendRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Tag = strings.TrimSpace(strings.ToLower(req.Tag))

	switch {
	case req.Title == "" || len(req.Title) > feedbackdomain.MaxTitleLen:
		return feedbackdomain.ErrInvalidFeedback
	case req.Content == "" || len(req.Content) > feedbackdomain.MaxContentLen:
		return feedbackdomain.ErrInvalidFeedback
	case !validTags[req.Tag]:
		return feedbackdomain.ErrInvalidFeedback
	case len(req.URLs) > feedbackdomain.MaxURLs:
		return feedbackdomain.ErrInvalidFeedback
	case len(req.AttachmentURLs) > feedbackdomain.MaxAttachmentURLs:
		return feedbackdomain.ErrInvalidFeedback
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email == "" {
			req.Email = nil
		} else {
			req.Email = &email
		}
	}
	return nil
}
