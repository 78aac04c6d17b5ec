package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const flushBatchSize = 100

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
	Clock clock.Clock
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	sinkURL string
	client  *http.Client
	clock   clock.Clock
}

func New(p Params) analyticsdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("analytics.service"),
		genID:   p.GenID,
		sinkURL: p.Cfg.AnalyticsSinkURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		clock:   p.Clock,
	}
}

func (s *Service) Track(ctx context.Context, req analyticsdomain.TrackRequest) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return
	}

	props := datatypes.JSONMap{}
	for k, v := range req.Properties {
		props[k] = v
	}

	event := analyticsdomain.Event{
		ID:         s.genID.Generate(),
		Name:       name,
		DistinctID: req.DistinctID,
		Properties: props,
		CreatedAt:  s.clock.Now(),
	}

	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO analytics_events (id, name, distinct_id, properties, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		event.ID,
		event.Name,
		event.DistinctID,
		event.Properties,
		event.CreatedAt,
	).Error
	if err != nil {
		// Analytics must never fail the caller.
		s.log.Warn("track failed", zap.String("event", name), zap.Error(err))
	}
}

func (s *Service) Flush(ctx context.Context) (int, error) {
	var pending []analyticsdomain.Event
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, name, distinct_id, properties, delivered_at, created_at
		 FROM analytics_events WHERE delivered_at IS NULL ORDER BY created_at ASC LIMIT ?`,
		flushBatchSize,
	).Scan(&pending).Error
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if s.sinkURL != "" {
		if err := s.deliver(ctx, pending); err != nil {
			return 0, err
		}
	}

	ids := make([]snowflake.ID, 0, len(pending))
	for _, e := range pending {
		ids = append(ids, e.ID)
	}
	now := s.clock.Now()
	err = s.db.WithContext(ctx).Exec(
		`UPDATE analytics_events SET delivered_at = ? WHERE id IN ?`,
		now,
		ids,
	).Error
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

func (s *Service) deliver(ctx context.Context, events []analyticsdomain.Event) error {
	body, err := json.Marshal(map[string]any{"events": events})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sinkURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("analytics sink returned %d", resp.StatusCode)
	}
	return nil
}
