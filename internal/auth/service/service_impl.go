package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	analyticsdomain "github.com/closebytel/closeby/internal/analytics/domain"
	authdomain "github.com/closebytel/closeby/internal/auth/domain"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	"github.com/closebytel/closeby/internal/ratelimit"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// One phone can request at most this many codes per window.
const (
	codeRequestRate   = 5
	codeRequestWindow = 10 * time.Minute
)

var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Cfg       config.Config
	Repo      authdomain.Repository
	Sender    authdomain.CodeSender
	Limiter   *ratelimit.FixedWindow `optional:"true"`
	Analytics analyticsdomain.Service
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	cfg       config.Config
	repo      authdomain.Repository
	sender    authdomain.CodeSender
	limiter   *ratelimit.FixedWindow
	analytics analyticsdomain.Service
	clock     clock.Clock
}

func New(p Params) authdomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("auth.service"),
		genID:     p.GenID,
		cfg:       p.Cfg,
		repo:      p.Repo,
		sender:    p.Sender,
		limiter:   p.Limiter,
		analytics: p.Analytics,
		clock:     p.Clock,
	}
}

func (s *Service) RequestCode(ctx context.Context, req authdomain.RequestCodeRequest) error {
	phone := normalizePhone(req.Phone)
	if phone == "" {
		return authdomain.ErrInvalidPhone
	}

	result, err := s.limiter.Allow(ctx, "auth:code:"+phone, codeRequestRate, codeRequestWindow)
	if err != nil {
		return err
	}
	if !result.Allowed {
		return authdomain.ErrRateLimited
	}

	code, err := generateCode(s.cfg.OTPCodeLength)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	record := &authdomain.OtpCode{
		ID:        s.genID.Generate(),
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(time.Duration(s.cfg.OTPCodeTTL) * time.Second),
		CreatedAt: now,
	}
	if err := s.repo.InsertCode(ctx, s.db, record); err != nil {
		return err
	}

	return s.sender.Send(ctx, phone, code)
}

func (s *Service) VerifyCode(ctx context.Context, req authdomain.VerifyCodeRequest) (*authdomain.LoginResult, error) {
	phone := normalizePhone(req.Phone)
	if phone == "" {
		return nil, authdomain.ErrInvalidPhone
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, authdomain.ErrInvalidCode
	}

	record, err := s.repo.FindLatestCodeByPhone(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, authdomain.ErrInvalidCode
	}

	now := s.clock.Now()
	if now.After(record.ExpiresAt) {
		return nil, authdomain.ErrCodeExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		return nil, authdomain.ErrInvalidCode
	}

	if err := s.repo.MarkCodeConsumed(ctx, s.db, record.ID, now); err != nil {
		return nil, err
	}

	user, err := s.repo.FindUserByPhone(ctx, s.db, phone)
	if err != nil {
		return nil, err
	}

	newUser := user == nil
	if newUser {
		user = &authdomain.User{
			ID:        s.genID.Generate(),
			Phone:     phone,
			Metadata:  datatypes.JSONMap{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.InsertUser(ctx, s.db, user); err != nil {
			return nil, err
		}
		s.analytics.Track(ctx, analyticsdomain.TrackRequest{
			Name:       "user.signed_up",
			DistinctID: user.ID.String(),
			Properties: map[string]any{"phone": phone},
		})
	}

	rawToken := uuid.NewString()
	session := &authdomain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        req.UserAgent,
		IPAddress:        req.IPAddress,
		ExpiresAt:        now.Add(time.Duration(s.cfg.SessionTTLHours) * time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.repo.InsertSession(ctx, s.db, session); err != nil {
		return nil, err
	}

	return &authdomain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		NewUser:   newUser,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(rawToken))
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.repo.RevokeSession(ctx, s.db, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, authdomain.ErrInvalidSession
	}

	session, err := s.repo.FindSessionByTokenHash(ctx, s.db, hashToken(rawToken))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, authdomain.ErrInvalidSession
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, authdomain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, authdomain.ErrSessionExpired
	}

	if err := s.repo.TouchSession(ctx, s.db, session.ID, now); err != nil {
		s.log.Warn("touch session failed", zap.Error(err))
	}
	return session, nil
}

func (s *Service) GetUser(ctx context.Context, userID snowflake.ID) (*authdomain.User, error) {
	user, err := s.repo.FindUserByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, authdomain.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, userID snowflake.ID, req authdomain.UpdateUserRequest) (*authdomain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		user.Name = &name
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateUser(ctx, s.db, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) SetDeveloperMode(ctx context.Context, userID snowflake.ID, enabled bool) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	user.DeveloperEnabled = enabled
	user.UpdatedAt = s.clock.Now()
	return s.repo.UpdateUser(ctx, s.db, user)
}

func (s *Service) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredCodes(ctx, s.db, s.clock.Now())
}

func normalizePhone(raw string) string {
	phone := strings.TrimSpace(raw)
	if !phonePattern.MatchString(phone) {
		return ""
	}
	return phone
}

func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
