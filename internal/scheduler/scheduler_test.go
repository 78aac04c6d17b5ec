package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authSvcStub struct {
	purgeCalls int
}

func (s *authSvcStub) RequestCode(ctx context.Context, req authdomain.RequestCodeRequest) error {
	return nil
}

func (s *authSvcStub) VerifyCode(ctx context.Context, req authdomain.VerifyCodeRequest) (*authdomain.LoginResult, error) {
	return nil, nil
}

func (s *authSvcStub) Logout(ctx context.Context, rawToken string) error { return nil }

func (s *authSvcStub) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	return nil, nil
}

func (s *authSvcStub) GetUser(ctx context.Context, userID snowflake.ID) (*authdomain.User, error) {
	return nil, nil
}

func (s *authSvcStub) UpdateUser(ctx context.Context, userID snowflake.ID, req authdomain.UpdateUserRequest) (*authdomain.User, error) {
	return nil, nil
}

func (s *authSvcStub) SetDeveloperMode(ctx context.Context, userID snowflake.ID, enabled bool) error {
	return nil
}

func (s *authSvcStub) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	s.purgeCalls++
	return 3, nil
}

type analyticsSvcStub struct {
	events     []analyticsdomain.TrackRequest
	flushCalls int
}

func (s *analyticsSvcStub) Track(ctx context.Context, req analyticsdomain.TrackRequest) {
	s.events = append(s.events, req)
}

func (s *analyticsSvcStub) Flush(ctx context.Context) (int, error) {
	s.flushCalls++
	return 0, nil
}

func setupScheduler(t *testing.T) (*Scheduler, *authSvcStub, *analyticsSvcStub, *clock.FakeClock) {
	t.Helper()

	auth := &authSvcStub{}
	analytics := &analyticsSvcStub{}
	fakeClock := clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	sched, err := New(Params{
		Log:          zap.NewNop(),
		AuthSvc:      auth,
		AnalyticsSvc: analytics,
		Clock:        fakeClock,
		Config: Config{
			TickInterval:      time.Minute,
			HeartbeatInterval: 30 * time.Minute,
			PurgeInterval:     30 * time.Minute,
			FlushInterval:     time.Minute,
			JobTimeout:        30 * time.Second,
		},
	})
	require.NoError(t, err)

	return sched, auth, analytics, fakeClock
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunOnceRunsAllJobsWhenDue(t *testing.T) {
	sched, auth, analytics, _ := setupScheduler(t)

	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Equal(t, 1, auth.purgeCalls)
	assert.Equal(t, 1, analytics.flushCalls)
	require.Len(t, analytics.events, 1)
	assert.Equal(t, "cron_executed", analytics.events[0].Name)
	assert.Equal(t, "system_cron", analytics.events[0].DistinctID)
}

func TestRunOnceSkipsJobsNotYetDue(t *testing.T) {
	sched, auth, analytics, fakeClock := setupScheduler(t)

	require.NoError(t, sched.RunOnce(context.Background()))

	// 30s later nothing is due again.
	fakeClock.Advance(30 * time.Second)
	require.NoError(t, sched.RunOnce(context.Background()))

	assert.Equal(t, 1, auth.purgeCalls)
	assert.Equal(t, 1, analytics.flushCalls)
	assert.Len(t, analytics.events, 1)
}

func TestRunOnceHonorsPerJobIntervals(t *testing.T) {
	sched, auth, analytics, fakeClock := setupScheduler(t)

	require.NoError(t, sched.RunOnce(context.Background()))

	// One minute on, only the flush job is due.
	fakeClock.Advance(time.Minute)
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 2, analytics.flushCalls)
	assert.Equal(t, 1, auth.purgeCalls)
	assert.Len(t, analytics.events, 1)

	// Past the half-hour mark everything is due again.
	fakeClock.Advance(30 * time.Minute)
	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Equal(t, 3, analytics.flushCalls)
	assert.Equal(t, 2, auth.purgeCalls)
	assert.Len(t, analytics.events, 2)
}

func TestConfigDefaults(t *testing.T) {
	defaults := DefaultConfig()
	cfg := Config{}.withDefaults()
	assert.Equal(t, defaults, cfg)

	custom := Config{TickInterval: 5 * time.Second}.withDefaults()
	assert.Equal(t, 5*time.Second, custom.TickInterval)
	assert.Equal(t, defaults.FlushInterval, custom.FlushInterval)
}
