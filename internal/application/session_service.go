package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBonusAmount int64 = 10
	bonusSource              = "daily-login"
	bonusDescription         = "Daily login bonus"
)

// TokenIssuer is the ledger surface the session manager needs for the
// daily login bonus.
type TokenIssuer interface {
	CreateToken(ctx context.Context, tokenType domain.TokenType, amount int64, source, description string, metadata map[string]string) (domain.Token, error)
}

type SessionConfig struct {
	Timeout     time.Duration
	BonusType   domain.TokenType
	BonusAmount int64
	HashCost    int
	Logger      *slog.Logger
}

// Sessions owns authentication state. Expiry is evaluated lazily on every
// read; an expired session is cleared and reported as anonymous.
type Sessions struct {
	mu       sync.Mutex
	observed *domain.User

	sessions ports.SessionRepository
	users    ports.UserRepository
	secrets  ports.SecretStore
	bus      *Bus
	clock    ports.Clock
	ids      ports.IDGenerator
	cfg      SessionConfig

	issuer    TokenIssuer
	announcer Announcer
}

func NewSessions(sessions ports.SessionRepository, users ports.UserRepository, secrets ports.SecretStore, bus *Bus, clock ports.Clock, ids ports.IDGenerator, cfg SessionConfig) *Sessions {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ids == nil {
		ids = ports.UUIDv7Generator{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if bus == nil {
		bus = NewBus(cfg.Logger)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = domain.DefaultSessionTimeout
	}
	if cfg.BonusType == "" {
		cfg.BonusType = domain.TokenTypeInfinity
	}
	if cfg.BonusAmount == 0 {
		cfg.BonusAmount = DefaultBonusAmount
	}
	if cfg.HashCost == 0 {
		cfg.HashCost = bcrypt.DefaultCost
	}

	return &Sessions{
		sessions: sessions,
		users:    users,
		secrets:  secrets,
		bus:      bus,
		clock:    clock,
		ids:      ids,
		cfg:      cfg,
	}
}

func (s *Sessions) SetIssuer(issuer TokenIssuer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuer = issuer
}

func (s *Sessions) SetAnnouncer(announcer Announcer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.announcer = announcer
}

// Load records the currently stored user without publishing events.
func (s *Sessions) Load(ctx context.Context) error {
	session, err := s.sessions.Load(ctx)
	if err != nil {
		return storageError("load session", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.observed = nil
	if session.Active(s.clock.Now(), s.cfg.Timeout) {
		s.observed = session.User
	}
	return nil
}

// Register creates a user, stores its secret digest and signs it in.
func (s *Sessions) Register(ctx context.Context, profile domain.Profile) (domain.User, error) {
	if err := profile.Validate(); err != nil {
		return domain.User{}, err
	}

	email := domain.NormalizeEmail(profile.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.NewValidationError("email", "is already registered")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, storageError("get user by email", err)
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(profile.Secret), s.cfg.HashCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash secret: %w", err)
	}

	id := domain.UserID(s.ids.NewID())
	user := domain.User{
		ID:          id,
		Email:       email,
		DisplayName: domain.NormalizeDisplayName(profile.DisplayName),
		SecretRef:   fmt.Sprintf("users/%s/secret", id),
		CreatedAt:   s.clock.Now(),
	}

	if err := s.secrets.Put(ctx, user.SecretRef, string(digest)); err != nil {
		return domain.User{}, storageError("store secret digest", err)
	}
	if err := s.users.Save(ctx, user); err != nil {
		if rollbackErr := s.secrets.Delete(ctx, user.SecretRef); rollbackErr != nil {
			return domain.User{}, storageError("save user and rollback stored secret", errors.Join(err, rollbackErr))
		}
		return domain.User{}, storageError("save user", err)
	}

	if err := s.start(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SignIn verifies credentials and starts a session. Unknown users and
// wrong secrets are reported as the same validation failure.
func (s *Sessions) SignIn(ctx context.Context, credentials domain.Credentials) (domain.User, error) {
	if err := credentials.Validate(); err != nil {
		return domain.User{}, err
	}

	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(credentials.ID))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, invalidCredentials()
		}
		return domain.User{}, storageError("get user by email", err)
	}

	digest, err := s.secrets.Get(ctx, user.SecretRef)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return domain.User{}, invalidCredentials()
		}
		return domain.User{}, storageError("load secret digest", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(credentials.Secret)); err != nil {
		return domain.User{}, invalidCredentials()
	}

	if err := s.start(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// SignOut clears the session. Calling it while anonymous is a no-op.
func (s *Sessions) SignOut(ctx context.Context) error {
	s.mu.Lock()
	session, err := s.sessions.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return storageError("load session", err)
	}
	if !session.Authenticated && s.observed == nil {
		s.mu.Unlock()
		return nil
	}
	if err := s.sessions.Clear(ctx); err != nil {
		s.mu.Unlock()
		return storageError("clear session", err)
	}
	s.observed = nil
	announcer := s.announcer
	s.mu.Unlock()

	s.bus.PublishLoginChanged(nil)
	if announcer != nil {
		announcer.Announce(ctx, domain.TopicSession)
	}
	return nil
}

// IsAuthenticated reports whether an unexpired session exists. Storage
// failures are logged and reported as anonymous.
func (s *Sessions) IsAuthenticated(ctx context.Context) bool {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		s.cfg.Logger.Warn("read session", slog.Any("error", err))
		return false
	}
	return user != nil
}

// CurrentUser returns the signed-in user or nil when anonymous.
func (s *Sessions) CurrentUser(ctx context.Context) (*domain.User, error) {
	session, err := s.observe(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Authenticated {
		return nil, nil
	}
	user := *session.User
	return &user, nil
}

// Session returns the active session record, zero when anonymous.
func (s *Sessions) Session(ctx context.Context) (domain.Session, error) {
	return s.observe(ctx)
}

func (s *Sessions) Authorize(ctx context.Context) error {
	session, err := s.observe(ctx)
	if err != nil {
		return err
	}
	if !session.Authenticated {
		return domain.ErrNotAuthenticated
	}
	return nil
}

// Touch bumps LastActivity of an active session.
func (s *Sessions) Touch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Load(ctx)
	if err != nil {
		return storageError("load session", err)
	}
	now := s.clock.Now()
	if !session.Active(now, s.cfg.Timeout) {
		return nil
	}
	session.LastActivity = now
	if err := s.sessions.Save(ctx, session); err != nil {
		return storageError("save session", err)
	}
	return nil
}

// Reload re-reads the store after another context changed it.
func (s *Sessions) Reload(ctx context.Context) error {
	_, err := s.observe(ctx)
	return err
}

func (s *Sessions) start(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	session := domain.NewSession(user, s.clock.Now())
	if err := s.sessions.Save(ctx, session); err != nil {
		s.mu.Unlock()
		return storageError("save session", err)
	}
	s.observed = session.User
	issuer, announcer := s.issuer, s.announcer
	s.mu.Unlock()

	s.bus.PublishLoginChanged(&user)
	if announcer != nil {
		announcer.Announce(ctx, domain.TopicSession)
	}

	if issuer != nil {
		if _, err := s.awardDailyBonus(ctx, issuer); err != nil {
			s.cfg.Logger.Warn("award daily bonus", slog.String("user", string(user.ID)), slog.Any("error", err))
		}
	}
	return nil
}

// awardDailyBonus issues the login bonus at most once per calendar day.
// The marker is written before the token so a failed marker write can
// never lead to a second award.
func (s *Sessions) awardDailyBonus(ctx context.Context, issuer TokenIssuer) (bool, error) {
	day := domain.BonusDay(s.clock.Now())

	last, err := s.sessions.LastBonusDay(ctx)
	if err != nil {
		return false, storageError("load bonus marker", err)
	}
	if last == day {
		return false, nil
	}
	if err := s.sessions.SetLastBonusDay(ctx, day); err != nil {
		return false, storageError("save bonus marker", err)
	}

	_, err = issuer.CreateToken(ctx, s.cfg.BonusType, s.cfg.BonusAmount, bonusSource, bonusDescription, map[string]string{"day": day})
	if err != nil {
		if restoreErr := s.sessions.SetLastBonusDay(ctx, last); restoreErr != nil {
			return false, fmt.Errorf("issue bonus token and restore marker: %w", errors.Join(err, restoreErr))
		}
		return false, fmt.Errorf("issue bonus token: %w", err)
	}
	return true, nil
}

// observe loads the session, collapses it when expired and publishes a
// login change when the observed user differs from the last one seen.
func (s *Sessions) observe(ctx context.Context) (domain.Session, error) {
	s.mu.Lock()
	session, err := s.sessions.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return domain.Session{}, storageError("load session", err)
	}

	now := s.clock.Now()
	expired := session.Authenticated && session.Expired(now, s.cfg.Timeout)
	if expired {
		if err := s.sessions.Clear(ctx); err != nil {
			s.mu.Unlock()
			return domain.Session{}, storageError("clear expired session", err)
		}
		session = domain.Session{}
	}
	if session.Authenticated && session.User == nil {
		session = domain.Session{}
	}

	var current *domain.User
	if session.Authenticated {
		current = session.User
	}
	changed := !sameUser(s.observed, current)
	s.observed = current
	announcer := s.announcer
	s.mu.Unlock()

	if changed {
		s.bus.PublishLoginChanged(current)
	}
	if expired && announcer != nil {
		announcer.Announce(ctx, domain.TopicSession)
	}
	return session, nil
}

func sameUser(a, b *domain.User) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func invalidCredentials() error {
	return domain.NewValidationError("credentials", "are invalid")
}
