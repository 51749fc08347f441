package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/tokenwallet/internal/domain"
	"github.com/bnema/tokenwallet/internal/ports/mocks"
	"github.com/bnema/tokenwallet/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSessionsRegisterSignsInAndAwardsBonus(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	user, err := wc.sessions.Register(ctx, domain.Profile{Email: " Ada@Example.com ", DisplayName: "  Ada  Lovelace ", Secret: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.DisplayName)
	assert.Equal(t, "users/"+string(user.ID)+"/secret", user.SecretRef)

	assert.True(t, wc.sessions.IsAuthenticated(ctx))
	current, err := wc.sessions.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)

	session, err := wc.sessions.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, testStart, session.SessionStart.UTC())
	assert.Equal(t, testStart, session.LastActivity.UTC())

	assert.Equal(t, DefaultBonusAmount, wc.ledger.GetBalance(domain.TokenTypeInfinity))
	assert.Equal(t, []string{string(EventLoginChanged), string(EventTokenCreated)}, wc.events.Events())
	bonus := wc.events.Tokens()[0]
	assert.Equal(t, "daily-login", bonus.Source)
	assert.Equal(t, map[string]string{"day": "2026-02-14"}, bonus.Metadata)
}

func TestSessionsDailyBonusOncePerCalendarDay(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()
	credentials := domain.Credentials{ID: "ada@example.com", Secret: "hunter22"}

	_, err := wc.sessions.Register(ctx, testProfile())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		clock.Advance(time.Hour)
		require.NoError(t, wc.sessions.SignOut(ctx))
		_, err := wc.sessions.SignIn(ctx, credentials)
		require.NoError(t, err)
	}
	assert.Equal(t, DefaultBonusAmount, wc.ledger.GetBalance(domain.TokenTypeInfinity))

	clock.Set(time.Date(2026, 2, 15, 0, 0, 1, 0, time.UTC))
	_, err = wc.sessions.SignIn(ctx, credentials)
	require.NoError(t, err)
	assert.Equal(t, 2*DefaultBonusAmount, wc.ledger.GetBalance(domain.TokenTypeInfinity))
}

func TestSessionsExpireLazilyAtTimeout(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	_, err := wc.sessions.Register(ctx, testProfile())
	require.NoError(t, err)

	clock.Set(testStart.Add(domain.DefaultSessionTimeout - time.Nanosecond))
	assert.True(t, wc.sessions.IsAuthenticated(ctx))

	clock.Set(testStart.Add(domain.DefaultSessionTimeout))
	current, err := wc.sessions.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.False(t, wc.sessions.IsAuthenticated(ctx))

	users := wc.events.Users()
	require.Len(t, users, 2)
	assert.NotNil(t, users[0])
	assert.Nil(t, users[1], "expiry is reported once as a sign-out")

	_, err = wc.ledger.CreateToken(ctx, domain.TokenTypeXP, 1, "x", "", nil)
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestSessionsActivityDoesNotExtendTimeout(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	_, err := wc.sessions.Register(ctx, testProfile())
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = wc.ledger.CreateToken(ctx, domain.TokenTypeXP, 1, "x", "", nil)
	require.NoError(t, err)
	session, err := wc.sessions.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, testStart.Add(23*time.Hour), session.LastActivity.UTC())

	clock.Advance(time.Hour)
	assert.False(t, wc.sessions.IsAuthenticated(ctx))
}

func TestSessionsRejectInvalidInputWithoutMutation(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	_, err := wc.sessions.Register(ctx, domain.Profile{Email: "not-an-email", DisplayName: "Ada", Secret: "hunter22"})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = wc.sessions.Register(ctx, domain.Profile{Email: "ada@example.com", DisplayName: "Ada", Secret: "abc"})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = wc.sessions.SignIn(ctx, domain.Credentials{ID: "", Secret: "hunter22"})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.False(t, wc.sessions.IsAuthenticated(ctx))
	assert.Empty(t, wc.events.Events())
	assert.Equal(t, domain.ZeroBalances(), wc.ledger.GetAllBalances())
}

func TestSessionsWrongSecretAndUnknownUserLookAlike(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	_, err := wc.sessions.Register(ctx, testProfile())
	require.NoError(t, err)
	require.NoError(t, wc.sessions.SignOut(ctx))

	_, wrongSecret := wc.sessions.SignIn(ctx, domain.Credentials{ID: "ada@example.com", Secret: "nope-nope"})
	_, unknownUser := wc.sessions.SignIn(ctx, domain.Credentials{ID: "grace@example.com", Secret: "hunter22"})

	require.ErrorIs(t, wrongSecret, domain.ErrValidation)
	require.ErrorIs(t, unknownUser, domain.ErrValidation)
	assert.Equal(t, wrongSecret.Error(), unknownUser.Error())
	assert.False(t, wc.sessions.IsAuthenticated(ctx))
}

func TestSessionsRegisterRejectsDuplicateEmail(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	_, err := wc.sessions.Register(ctx, testProfile())
	require.NoError(t, err)

	profile := testProfile()
	profile.Email = "ADA@example.com"
	_, err = wc.sessions.Register(ctx, profile)
	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "email", validationErr.Field)
}

func TestSessionsSignOut(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(testStart)
	wc := newWalletContext(t, newStorePaths(t), clock, testutil.NewSequentialIDs("id"))
	ctx := context.Background()

	require.NoError(t, wc.sessions.SignOut(ctx), "signing out while anonymous is a no-op")
	assert.Empty(t, wc.events.Events())

	_, err := wc.sessions.Register(ctx, testProfile())
	require.NoError(t, err)
	require.NoError(t, wc.sessions.SignOut(ctx))

	users := wc.events.Users()
	require.Len(t, users, 2)
	assert.Nil(t, users[1])
	assert.False(t, wc.sessions.IsAuthenticated(ctx))
	assert.Len(t, wc.events.Users(), 2, "observing after sign-out publishes nothing new")
}

type failingIssuer struct{}

func (failingIssuer) CreateToken(context.Context, domain.TokenType, int64, string, string, map[string]string) (domain.Token, error) {
	return domain.Token{}, errors.New("ledger offline")
}

func TestSessionsBonusFailureRestoresMarker(t *testing.T) {
	t.Parallel()

	sessionRepo := mocks.NewMockSessionRepository(t)
	users := mocks.NewMockUserRepository(t)
	secrets := mocks.NewMockSecretStore(t)
	clock := testutil.NewFakeClock(testStart)

	digest, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.User{ID: "u1", Email: "ada@example.com", SecretRef: "users/u1/secret"}

	users.EXPECT().GetByEmail(mockAnyContext(), "ada@example.com").Return(user, nil)
	secrets.EXPECT().Get(mockAnyContext(), "users/u1/secret").Return(string(digest), nil)
	sessionRepo.EXPECT().Save(mockAnyContext(), domain.NewSession(user, testStart)).Return(nil)
	sessionRepo.EXPECT().LastBonusDay(mockAnyContext()).Return("2026-02-13", nil)
	sessionRepo.EXPECT().SetLastBonusDay(mockAnyContext(), "2026-02-14").Return(nil).Once()
	sessionRepo.EXPECT().SetLastBonusDay(mockAnyContext(), "2026-02-13").Return(nil).Once()

	sessions := NewSessions(sessionRepo, users, secrets, NewBus(discardLogger()), clock, testutil.NewSequentialIDs("id"), SessionConfig{Logger: discardLogger()})
	sessions.SetIssuer(failingIssuer{})

	got, err := sessions.SignIn(context.Background(), domain.Credentials{ID: "ada@example.com", Secret: "hunter22"})
	require.NoError(t, err, "a failed bonus does not fail the sign-in")
	assert.Equal(t, user, got)
}

func TestSessionsRegisterRollsBackSecretWhenUserSaveFails(t *testing.T) {
	t.Parallel()

	sessionRepo := mocks.NewMockSessionRepository(t)
	users := mocks.NewMockUserRepository(t)
	secrets := mocks.NewMockSecretStore(t)

	users.EXPECT().GetByEmail(mockAnyContext(), "ada@example.com").Return(domain.User{}, domain.ErrUserNotFound)
	secrets.EXPECT().Put(mockAnyContext(), "users/id-1/secret", mock.AnythingOfType("string")).Return(nil)
	users.EXPECT().Save(mockAnyContext(), mock.AnythingOfType("domain.User")).Return(errors.New("read-only filesystem"))
	secrets.EXPECT().Delete(mockAnyContext(), "users/id-1/secret").Return(nil)

	sessions := NewSessions(sessionRepo, users, secrets, nil, testutil.NewFakeClock(testStart), testutil.NewSequentialIDs("id"), SessionConfig{
		HashCost: bcrypt.MinCost,
		Logger:   discardLogger(),
	})

	_, err := sessions.Register(context.Background(), testProfile())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorContains(t, err, "read-only filesystem")
}

func TestSessionsStorageFailureReadsAsAnonymous(t *testing.T) {
	t.Parallel()

	sessionRepo := mocks.NewMockSessionRepository(t)
	sessionRepo.EXPECT().Load(mockAnyContext()).Return(domain.Session{}, errors.New("locked"))

	sessions := NewSessions(sessionRepo, nil, nil, nil, testutil.NewFakeClock(testStart), nil, SessionConfig{Logger: discardLogger()})

	assert.False(t, sessions.IsAuthenticated(context.Background()))
	_, err := sessions.CurrentUser(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
