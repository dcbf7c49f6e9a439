// Package users implements the account lifecycle of the development backend:
// signup with an emailed code, login, refresh-token rotation and logout.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cityai/internal/common"
	"github.com/dmitrijs2005/cityai/internal/dbx"
	"github.com/dmitrijs2005/cityai/internal/logging"
	"github.com/dmitrijs2005/cityai/internal/server/auth"
	"github.com/dmitrijs2005/cityai/internal/server/config"
	"github.com/dmitrijs2005/cityai/internal/server/models"
	"github.com/dmitrijs2005/cityai/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrAlreadyRegistered   = errors.New("email already registered")
	ErrInvalidCode         = errors.New("invalid or expired verification code")
	ErrTooManyAttempts     = errors.New("too many verification attempts")
	ErrNoPendingCode       = errors.New("no pending verification")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is an issued token pair and the account it belongs to.
type Session struct {
	Tokens TokenPair
	User   *models.User
}

type SignupInput struct {
	Email      string
	Password   string
	Name       string
	Department string
}

// SignupResult has a nil Session when a verification code was sent.
type SignupResult struct {
	User    *models.User
	Session *Session
}

type Service struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	sender CodeSender
	logger logging.Logger

	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	codeValidityDuration         time.Duration
	maxCodeAttempts              int
	isAdminEmail                 func(string) bool
	autoActivate                 bool

	passwordCost int
	now          func() time.Time
}

type Option func(*Service)

// WithPasswordCost sets the bcrypt cost (tests use bcrypt.MinCost).
func WithPasswordCost(cost int) Option {
	return func(s *Service) { s.passwordCost = cost }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, sender CodeSender, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		db:                           db,
		repos:                        repos,
		sender:                       sender,
		logger:                       logging.Nop{},
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		codeValidityDuration:         cfg.CodeValidityDuration,
		maxCodeAttempts:              cfg.MaxCodeAttempts,
		isAdminEmail:                 cfg.IsAdminEmail,
		autoActivate:                 cfg.AutoActivate,
		passwordCost:                 bcrypt.DefaultCost,
		now:                          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "users")
	return s
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers an account. An unverified account with the same email is
// overwritten and gets a fresh code; a verified one yields ErrAlreadyRegistered.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	email := NormalizeEmail(in.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var (
		res  SignupResult
		code string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		u, err := repo.GetByEmail(ctx, email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			u = &models.User{
				ID:        uuid.NewString(),
				Email:     email,
				Role:      models.RoleUser,
				CreatedAt: s.now(),
			}
			if s.isAdminEmail(email) {
				u.Role = models.RoleAdmin
			}
		case err != nil:
			return err
		case u.Verified:
			return ErrAlreadyRegistered
		}

		u.Name = strings.TrimSpace(in.Name)
		u.Department = strings.TrimSpace(in.Department)
		u.PasswordHash = hash

		if s.autoActivate {
			u.Verified = true
		} else if code, err = s.assignCode(u); err != nil {
			return err
		}

		if err := s.save(ctx, tx, u); err != nil {
			return err
		}
		res.User = u

		if s.autoActivate {
			sess, err := s.issueSession(ctx, tx, u)
			if err != nil {
				return err
			}
			res.Session = sess
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if code != "" {
		if err := s.sender.SendCode(ctx, email, code); err != nil {
			return nil, fmt.Errorf("send code: %w", err)
		}
	}
	s.logger.Info(ctx, "user signed up", "user_id", res.User.ID, "verified", res.User.Verified)
	return &res, nil
}

// VerifyCode activates the account when code matches the pending one and has
// not expired, and signs it in. Every wrong guess is counted; once
// maxCodeAttempts is reached the pending code is refused until ResendCode
// issues a new one.
func (s *Service) VerifyCode(ctx context.Context, email, code string) (*Session, error) {
	email = NormalizeEmail(email)

	var (
		sess     *Session
		rejected *models.User
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		u, err := repo.GetByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if u.Verified || len(u.CodeHash) == 0 {
			return ErrInvalidCode
		}
		if s.maxCodeAttempts > 0 && u.CodeAttempts >= s.maxCodeAttempts {
			return ErrTooManyAttempts
		}
		if !s.now().Before(u.CodeExpires) {
			return ErrInvalidCode
		}

		if !auth.CheckCode(u.CodeHash, code) {
			// The counter has to survive, so the transaction commits and
			// the rejection is reported after it.
			u.CodeAttempts++
			rejected = u
			return repo.Update(ctx, u)
		}

		u.Verified = true
		u.CodeHash = nil
		u.CodeExpires = time.Time{}
		u.CodeAttempts = 0
		if err := repo.Update(ctx, u); err != nil {
			return err
		}

		sess, err = s.issueSession(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		s.logger.Info(ctx, "wrong verification code", "user_id", rejected.ID, "attempts", rejected.CodeAttempts)
		return nil, ErrInvalidCode
	}
	s.logger.Info(ctx, "email verified", "user_id", sess.User.ID)
	return sess, nil
}

// ResendCode replaces the pending code of an unverified account.
func (s *Service) ResendCode(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	var code string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		u, err := repo.GetByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			return ErrNoPendingCode
		}
		if err != nil {
			return err
		}
		if u.Verified {
			return ErrNoPendingCode
		}

		if code, err = s.assignCode(u); err != nil {
			return err
		}
		return repo.Update(ctx, u)
	})
	if err != nil {
		return err
	}

	if err := s.sender.SendCode(ctx, email, code); err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.repos.Users(s.db).GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, ErrEmailNotConfirmed
	}

	sess, err := s.issueSession(ctx, s.db, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user logged in", "user_id", u.ID)
	return sess, nil
}

// Refresh consumes refreshToken and issues a new pair. A token works once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var sess *Session
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repos.RefreshTokens(tx)

		rt, err := tokens.Find(ctx, refreshToken)
		if errors.Is(err, common.ErrorNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}
		if rt.Expired(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		if err := tokens.Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidRefreshToken
			}
			return err
		}

		u, err := s.repos.Users(tx).GetByID(ctx, rt.UserID)
		if errors.Is(err, common.ErrorNotFound) {
			return ErrInvalidRefreshToken
		}
		if err != nil {
			return err
		}

		sess, err = s.issueSession(ctx, tx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Logout revokes every refresh token of the user. Access tokens stay valid
// until they expire.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.repos.RefreshTokens(s.db).DeleteByUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Authenticate resolves an access token to its account. It returns
// common.ErrTokenExpired or common.ErrInvalidToken for unusable tokens.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	u, err := s.repos.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) assignCode(u *models.User) (string, error) {
	code, err := auth.NewCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	u.CodeHash = auth.HashCode(code)
	u.CodeExpires = s.now().Add(s.codeValidityDuration)
	u.CodeAttempts = 0
	return code, nil
}

func (s *Service) save(ctx context.Context, tx dbx.DBTX, u *models.User) error {
	repo := s.repos.Users(tx)
	if err := repo.Update(ctx, u); err == nil || !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return repo.Create(ctx, u)
}

func (s *Service) issueSession(ctx context.Context, db dbx.DBTX, u *models.User) (*Session, error) {
	accessToken, err := auth.GenerateToken(u.ID, u.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := auth.NewRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.repos.RefreshTokens(db).Create(ctx, u.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, err
	}

	return &Session{Tokens: TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, User: u}, nil
}
