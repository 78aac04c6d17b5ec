package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	"github.com/closebytel/closeby/internal/clock"
	feedbackdomain "github.com/closebytel/closeby/internal/feedback/domain"
	feedbackrepo "github.com/closebytel/closeby/internal/feedback/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type trackerStub struct {
	events []analyticsdomain.TrackRequest
}

func (s *trackerStub) Track(ctx context.Context, req analyticsdomain.TrackRequest) {
	s.events = append(s.events, req)
}

func (s *trackerStub) Flush(ctx context.Context) (int, error) { return 0, nil }

func setupFeedback(t *testing.T) (feedbackdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&feedbackdomain.Feedback{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      feedbackrepo.Provide(),
		Limiter:   nil,
		Analytics: &trackerStub{},
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	})

	return svc, db, node
}

func validRequest() feedbackdomain.SendRequest {
	return feedbackdomain.SendRequest{
		Title:   "Scheduled messages arrive twice",
		Content: "Every reminder I schedule is delivered two times.",
		Tag:     "bug",
		URLs:    []string{"https://closeby.tel/settings"},
	}
}

func TestSendStoresFeedback(t *testing.T) {
	svc, db, node := setupFeedback(t)
	userID := node.Generate()

	row, err := svc.Send(context.Background(), userID, validRequest())
	require.NoError(t, err)
	assert.Equal(t, userID, row.UserID)
	assert.Equal(t, "bug", row.Tag)

	var count int64
	require.NoError(t, db.Model(&feedbackdomain.Feedback{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSendValidation(t *testing.T) {
	svc, _, node := setupFeedback(t)
	userID := node.Generate()

	cases := map[string]func(r *feedbackdomain.SendRequest){
		"empty title":          func(r *feedbackdomain.SendRequest) { r.Title = "  " },
		"title too long":       func(r *feedbackdomain.SendRequest) { r.Title = strings.Repeat("a", 129) },
		"empty content":        func(r *feedbackdomain.SendRequest) { r.Content = "" },
		"content too long":     func(r *feedbackdomain.SendRequest) { r.Content = strings.Repeat("a", 2049) },
		"unknown tag":          func(r *feedbackdomain.SendRequest) { r.Tag = "complaint" },
		"too many urls":        func(r *feedbackdomain.SendRequest) { r.URLs = make([]string, 5) },
		"too many attachments": func(r *feedbackdomain.SendRequest) { r.AttachmentURLs = make([]string, 9) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Send(context.Background(), userID, req)
			assert.ErrorIs(t, err, feedbackdomain.ErrInvalidFeedback)
		})
	}
}

func TestSendNormalizesTagAndEmail(t *testing.T) {
	svc, _, node := setupFeedback(t)

	req := validRequest()
	req.Tag = " Feature "
	empty := "   "
	req.Email = &empty

	row, err := svc.Send(context.Background(), node.Generate(), req)
	require.NoError(t, err)
	assert.Equal(t, "feature", row.Tag)
	assert.Nil(t, row.Email)
}

func TestSendBoundaryLengthsAccepted(t *testing.T) {
	svc, _, node := setupFeedback(t)

	req := validRequest()
	req.Title = strings.Repeat("t", 128)
	req.Content = strings.Repeat("c", 2048)
	req.URLs = make([]string, 4)
	req.AttachmentURLs = make([]string, 8)

	_, err := svc.Send(context.Background(), node.Generate(), req)
	assert.NoError(t, err)
}
