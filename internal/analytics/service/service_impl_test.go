package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAnalytics(t *testing.T, sinkURL string) (analyticsdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&analyticsdomain.Event{}))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   config.Config{AnalyticsSinkURL: sinkURL},
		Clock: clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	})

	return svc, db
}

func TestTrackInsertsEvent(t *testing.T) {
	svc, db := setupAnalytics(t, "")

	svc.Track(context.Background(), analyticsdomain.TrackRequest{
		Name:       "user.signed_up",
		DistinctID: "42",
		Properties: map[string]any{"channel": "whatsapp"},
	})

	var row analyticsdomain.Event
	require.NoError(t, db.Raw(`SELECT * FROM analytics_events`).Scan(&row).Error)
	assert.Equal(t, "user.signed_up", row.Name)
	assert.Equal(t, "42", row.DistinctID)
	assert.Nil(t, row.DeliveredAt)
}

func TestTrackIgnoresEmptyName(t *testing.T) {
	svc, db := setupAnalytics(t, "")

	svc.Track(context.Background(), analyticsdomain.TrackRequest{Name: "   "})

	var count int64
	require.NoError(t, db.Model(&analyticsdomain.Event{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFlushMarksEventsDelivered(t *testing.T) {
	svc, db := setupAnalytics(t, "")

	svc.Track(context.Background(), analyticsdomain.TrackRequest{Name: "one", DistinctID: "a"})
	svc.Track(context.Background(), analyticsdomain.TrackRequest{Name: "two", DistinctID: "a"})

	delivered, err := svc.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	var pending int64
	require.NoError(t, db.Model(&analyticsdomain.Event{}).Where("delivered_at IS NULL").Count(&pending).Error)
	assert.Zero(t, pending)

	// Nothing left to deliver.
	delivered, err = svc.Flush(context.Background())
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestFlushPostsToSink(t *testing.T) {
	var received struct {
		Events []analyticsdomain.Event `json:"events"`
	}
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer sink.Close()

	svc, _ := setupAnalytics(t, sink.URL)
	svc.Track(context.Background(), analyticsdomain.TrackRequest{Name: "cron_executed", DistinctID: "system_cron"})

	delivered, err := svc.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	require.Len(t, received.Events, 1)
	assert.Equal(t, "cron_executed", received.Events[0].Name)
}

func TestFlushSinkFailureKeepsEventsPending(t *testing.T) {
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer sink.Close()

	svc, db := setupAnalytics(t, sink.URL)
	svc.Track(context.Background(), analyticsdomain.TrackRequest{Name: "one", DistinctID: "a"})

	_, err := svc.Flush(context.Background())
	require.Error(t, err)

	var pending int64
	require.NoError(t, db.Model(&analyticsdomain.Event{}).Where("delivered_at IS NULL").Count(&pending).Error)
	assert.Equal(t, int64(1), pending)
}
