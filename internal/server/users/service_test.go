package users

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/dmitrijs2005/cityai/internal/server/auth"
	"github.com/dmitrijs2005/cityai/internal/server/config"
	"github.com/dmitrijs2005/cityai/internal/server/models"
	"github.com/dmitrijs2005/cityai/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (c *captureSender) SendCode(_ context.Context, email, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.codes == nil {
		c.codes = map[string]string{}
	}
	c.codes[email] = code
	return nil
}

func (c *captureSender) last(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[email]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc    *Service
	db     *sql.DB
	sender *captureSender
	clock  *clock
}

func newFixture(t *testing.T, tweak func(*config.Config)) *fixture {
	t.Helper()

	m := repomanager.NewSQLiteRepositoryManager()
	db, err := m.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AdminEmails = []string{"chief@city.go.kr"}
	if tweak != nil {
		tweak(cfg)
	}

	f := &fixture{db: db, sender: &captureSender{}, clock: &clock{now: time.Now()}}
	f.svc = NewService(db, m, f.sender, cfg, WithPasswordCost(bcrypt.MinCost), WithClock(f.clock.Now))
	return f
}

func (f *fixture) signup(t *testing.T, email string) {
	t.Helper()
	res, err := f.svc.Signup(context.Background(), SignupInput{
		Email: email, Password: "secret1", Name: "Kim", Department: "Planning",
	})
	require.NoError(t, err)
	require.Nil(t, res.Session)
}

func (f *fixture) activate(t *testing.T, email string) *Session {
	t.Helper()
	f.signup(t, email)
	sess, err := f.svc.VerifyCode(context.Background(), email, f.sender.last(NormalizeEmail(email)))
	require.NoError(t, err)
	return sess
}

func TestSignup_SendsCode(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.Signup(context.Background(), SignupInput{
		Email: " Kim@City.go.kr ", Password: "secret1", Name: " Kim ", Department: "Planning",
	})
	require.NoError(t, err)

	assert.Nil(t, res.Session)
	assert.Equal(t, "kim@city.go.kr", res.User.Email)
	assert.Equal(t, "Kim", res.User.Name)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.False(t, res.User.Verified)
	assert.Regexp(t, `^[0-9]{6}$`, f.sender.last("kim@city.go.kr"))
}

func TestSignup_AdminEmailGetsAdminRole(t *testing.T) {
	f := newFixture(t, nil)

	sess := f.activate(t, "chief@city.go.kr")
	assert.True(t, sess.User.IsAdmin())
}

func TestSignup_AutoActivateIssuesSession(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.AutoActivate = true })

	res, err := f.svc.Signup(context.Background(), SignupInput{Email: "kim@city.go.kr", Password: "secret1"})
	require.NoError(t, err)

	require.NotNil(t, res.Session)
	assert.True(t, res.User.Verified)
	assert.NotEmpty(t, res.Session.Tokens.AccessToken)
	assert.NotEmpty(t, res.Session.Tokens.RefreshToken)
	assert.Empty(t, f.sender.last("kim@city.go.kr"))
}

func TestSignup_VerifiedEmailIsTaken(t *testing.T) {
	f := newFixture(t, nil)
	f.activate(t, "kim@city.go.kr")

	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "KIM@city.go.kr", Password: "other12"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestSignup_PendingAccountIsReplaced(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.signup(t, "kim@city.go.kr")
	first := f.sender.last("kim@city.go.kr")

	_, err := f.svc.Signup(ctx, SignupInput{Email: "kim@city.go.kr", Password: "newpass", Name: "Lee"})
	require.NoError(t, err)
	second := f.sender.last("kim@city.go.kr")

	if first != second {
		_, err = f.svc.VerifyCode(ctx, "kim@city.go.kr", first)
		assert.ErrorIs(t, err, ErrInvalidCode, "old code must be replaced")
	}

	sess, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", second)
	require.NoError(t, err)
	assert.Equal(t, "Lee", sess.User.Name)

	_, err = f.svc.Login(ctx, "kim@city.go.kr", "newpass")
	assert.NoError(t, err)
}

func TestSignup_SenderFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.sender.err = errors.New("smtp down")

	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "kim@city.go.kr", Password: "secret1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestVerifyCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.signup(t, "kim@city.go.kr")
	code := f.sender.last("kim@city.go.kr")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", wrong)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = f.svc.VerifyCode(ctx, "nobody@city.go.kr", code)
	assert.ErrorIs(t, err, ErrInvalidCode)

	sess, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", code)
	require.NoError(t, err)
	assert.True(t, sess.User.Verified)
	assert.Empty(t, sess.User.CodeHash)

	_, err = f.svc.VerifyCode(ctx, "kim@city.go.kr", code)
	assert.ErrorIs(t, err, ErrInvalidCode, "a code works once")
}

func TestVerifyCode_Expired(t *testing.T) {
	f := newFixture(t, nil)
	f.signup(t, "kim@city.go.kr")

	f.clock.Advance(11 * time.Minute)

	_, err := f.svc.VerifyCode(context.Background(), "kim@city.go.kr", f.sender.last("kim@city.go.kr"))
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestVerifyCode_AttemptsAreCapped(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.MaxCodeAttempts = 3 })
	ctx := context.Background()
	f.signup(t, "kim@city.go.kr")
	code := f.sender.last("kim@city.go.kr")

	for i := 0; i < 3; i++ {
		_, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", wrongCode(code))
		require.ErrorIs(t, err, ErrInvalidCode, "attempt %d", i+1)
	}

	u, err := repomanager.NewSQLiteRepositoryManager().Users(f.db).GetByEmail(ctx, "kim@city.go.kr")
	require.NoError(t, err)
	assert.Equal(t, 3, u.CodeAttempts, "wrong guesses are persisted")

	_, err = f.svc.VerifyCode(ctx, "kim@city.go.kr", code)
	assert.ErrorIs(t, err, ErrTooManyAttempts, "the right code is refused once the cap is hit")

	require.NoError(t, f.svc.ResendCode(ctx, "kim@city.go.kr"))
	sess, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", f.sender.last("kim@city.go.kr"))
	require.NoError(t, err, "a new code resets the counter")
	assert.Zero(t, sess.User.CodeAttempts)
}

func TestVerifyCode_CorrectCodeBelowCap(t *testing.T) {
	f := newFixture(t, func(c *config.Config) { c.MaxCodeAttempts = 2 })
	ctx := context.Background()
	f.signup(t, "kim@city.go.kr")
	code := f.sender.last("kim@city.go.kr")

	_, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", wrongCode(code))
	require.ErrorIs(t, err, ErrInvalidCode)

	_, err = f.svc.VerifyCode(ctx, "kim@city.go.kr", code)
	assert.NoError(t, err)
}

func TestResendCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.signup(t, "kim@city.go.kr")

	f.clock.Advance(11 * time.Minute)
	require.NoError(t, f.svc.ResendCode(ctx, "kim@city.go.kr"))

	_, err := f.svc.VerifyCode(ctx, "kim@city.go.kr", f.sender.last("kim@city.go.kr"))
	assert.NoError(t, err, "a resent code restarts the validity window")

	assert.ErrorIs(t, f.svc.ResendCode(ctx, "kim@city.go.kr"), ErrNoPendingCode)
	assert.ErrorIs(t, f.svc.ResendCode(ctx, "nobody@city.go.kr"), ErrNoPendingCode)
}

func TestLogin(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.signup(t, "kim@city.go.kr")

	_, err := f.svc.Login(ctx, "kim@city.go.kr", "secret1")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	_, err = f.svc.VerifyCode(ctx, "kim@city.go.kr", f.sender.last("kim@city.go.kr"))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "kim@city.go.kr", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@city.go.kr", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	sess, err := f.svc.Login(ctx, "Kim@City.go.kr", "secret1")
	require.NoError(t, err)

	claims, err := auth.ParseToken(sess.Tokens.AccessToken, []byte("secretKey"))
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, claims.UserID)
	assert.Equal(t, "kim@city.go.kr", claims.Email)
}

func TestRefresh_RotatesToken(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.activate(t, "kim@city.go.kr")

	next, err := f.svc.Refresh(ctx, sess.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.Tokens.RefreshToken, next.Tokens.RefreshToken)
	assert.Equal(t, sess.User.ID, next.User.ID)

	_, err = f.svc.Refresh(ctx, sess.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a refresh token works once")

	_, err = f.svc.Refresh(ctx, next.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Expired(t *testing.T) {
	f := newFixture(t, nil)
	sess := f.activate(t, "kim@city.go.kr")

	f.clock.Advance(25 * time.Hour)

	_, err := f.svc.Refresh(context.Background(), sess.Tokens.RefreshToken)
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefresh_Unknown(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Refresh(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.activate(t, "kim@city.go.kr")
	other, err := f.svc.Login(ctx, "kim@city.go.kr", "secret1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, sess.User.ID))

	_, err = f.svc.Refresh(ctx, sess.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, err = f.svc.Refresh(ctx, other.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sess := f.activate(t, "kim@city.go.kr")

	u, err := f.svc.Authenticate(ctx, sess.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)
	assert.Equal(t, "Planning", u.Department)

	_, err = f.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	stale, err := auth.GenerateToken("gone", "gone@city.go.kr", []byte("secretKey"), time.Minute)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, stale)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expired, err := auth.GenerateToken(u.ID, u.Email, []byte("secretKey"), -time.Second)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}
