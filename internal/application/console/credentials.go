package console

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/finsite/backend/internal/domain/shared"
	"github.com/finsite/backend/internal/infrastructure/dataaccess"
	"github.com/finsite/backend/internal/infrastructure/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Login paths recorded on the session and in metrics
const (
	ViaPassword = "password"
	ViaDev      = "dev"
	ViaResume   = "resume"
)

// DevTokenIssuer is the iss claim of every token minted by dev login
const DevTokenIssuer = "finsite-dev"

// Credential errors
var (
	ErrDevLoginRefused = errors.New("console: dev login requires console.dev_login_enabled outside production")
	ErrNoSecondFactor  = shared.NewDomainError("NO_SECOND_FACTOR", "No second-factor challenge is pending")
)

// LoginOutcome is the result of one credential step. Result is always
// populated so callers can render an inline message.
type LoginOutcome struct {
	Result               shared.WriteResult
	RequiresSecondFactor bool
	TempToken            string
	Token                string
}

// CredentialProvider turns staff credentials into a bearer token
type CredentialProvider interface {
	Login(ctx context.Context, email, password string) (LoginOutcome, error)
	VerifySecondFactor(ctx context.Context, tempToken, code string) (LoginOutcome, error)
	Name() string
}

// TokenVerifier checks the signature and claims of a token the provider
// issued itself
type TokenVerifier interface {
	VerifyToken(token string) error
}

// Authenticator is the persistence-side auth API
type Authenticator interface {
	Login(ctx context.Context, email, password string) (dataaccess.LoginResult, error)
	VerifySecondFactor(ctx context.Context, tempToken, code string) (dataaccess.LoginResult, error)
}

// RemoteCredentialProvider validates credentials against the Persistence Service
type RemoteCredentialProvider struct {
	auth Authenticator
}

// NewRemoteCredentialProvider creates a provider backed by auth
func NewRemoteCredentialProvider(auth Authenticator) *RemoteCredentialProvider {
	return &RemoteCredentialProvider{auth: auth}
}

// Name implements CredentialProvider
func (p *RemoteCredentialProvider) Name() string { return ViaPassword }

// Login implements CredentialProvider
func (p *RemoteCredentialProvider) Login(ctx context.Context, email, password string) (LoginOutcome, error) {
	res, err := p.auth.Login(ctx, email, password)
	return outcomeFrom(res), err
}

// VerifySecondFactor implements CredentialProvider
func (p *RemoteCredentialProvider) VerifySecondFactor(ctx context.Context, tempToken, code string) (LoginOutcome, error) {
	res, err := p.auth.VerifySecondFactor(ctx, tempToken, code)
	return outcomeFrom(res), err
}

func outcomeFrom(res dataaccess.LoginResult) LoginOutcome {
	return LoginOutcome{
		Result:               res.WriteResult,
		RequiresSecondFactor: res.RequiresSecondFactor,
		TempToken:            res.TempToken,
		Token:                res.AccessToken,
	}
}

// DevLoginConfig controls the local-only credential provider
type DevLoginConfig struct {
	Enabled    bool
	Production bool
	Delay      time.Duration
	TokenTTL   time.Duration
}

// LocalDevCredentialProvider grants access without contacting the
// Persistence Service. It only exists outside production.
type LocalDevCredentialProvider struct {
	delay  time.Duration
	ttl    time.Duration
	key    []byte
	logger *zap.Logger
}

// NewLocalDevCredentialProvider returns ErrDevLoginRefused unless dev login
// is enabled and the app is not running in production
func NewLocalDevCredentialProvider(cfg DevLoginConfig, logger *zap.Logger) (*LocalDevCredentialProvider, error) {
	if !cfg.Enabled || cfg.Production {
		return nil, ErrDevLoginRefused
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 8 * time.Hour
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return &LocalDevCredentialProvider{
		delay:  cfg.Delay,
		ttl:    cfg.TokenTTL,
		key:    key,
		logger: logger.Named("dev_login"),
	}, nil
}

// Name implements CredentialProvider
func (p *LocalDevCredentialProvider) Name() string { return ViaDev }

// Login waits out the configured delay and issues a locally signed token.
// The credentials are ignored.
func (p *LocalDevCredentialProvider) Login(ctx context.Context, _, _ string) (LoginOutcome, error) {
	logger.WithLogger(ctx, p.logger).Warn("Console access granted by local dev login")

	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			err := ctx.Err()
			return LoginOutcome{Result: shared.ResultFromError(err, "")}, err
		}
	}

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    DevTokenIssuer,
		Subject:   "dev",
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	}).SignedString(p.key)
	if err != nil {
		return LoginOutcome{Result: shared.ResultFromError(err, "")}, err
	}
	return LoginOutcome{
		Result: shared.ResultFromError(nil, "Dev login granted"),
		Token:  token,
	}, nil
}

// VerifySecondFactor always fails, dev login never issues a challenge
func (p *LocalDevCredentialProvider) VerifySecondFactor(context.Context, string, string) (LoginOutcome, error) {
	return LoginOutcome{Result: shared.ResultFromError(ErrNoSecondFactor, "")}, ErrNoSecondFactor
}

// VerifyToken accepts only unexpired tokens signed by this process
func (p *LocalDevCredentialProvider) VerifyToken(token string) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(DevTokenIssuer),
		jwt.WithExpirationRequired(),
	)
	return err
}

var _ TokenVerifier = (*LocalDevCredentialProvider)(nil)
