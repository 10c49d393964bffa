package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/gateway"
	"sales-forecast-client/internal/pkg/logger"
	"sales-forecast-client/internal/pkg/validation"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// SessionGateway is what the auth session needs from the gateway: request
// execution plus ownership of the credential.
type SessionGateway interface {
	Doer
	Store() gateway.CredentialStore
	OnAuthExpired(fn func())
}

type IAuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.User, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*dto.User, error)
	UpdateUser(ctx context.Context, req *dto.UserUpdateRequest) (*dto.User, error)
	IsAuthenticated(ctx context.Context) bool
	// Restore re-validates a stored credential at start-up. A failed check
	// logs the session out.
	Restore(ctx context.Context) (*dto.User, error)
	// OnLogout registers fn to run on explicit logout and on forced logout
	// after an authorization failure.
	OnLogout(fn func())
}

type authService struct {
	gw     SessionGateway
	logger logger.ILogger

	mu        sync.RWMutex
	user      *dto.User
	listeners []func()
}

func NewAuthService(gw SessionGateway, log logger.ILogger) IAuthService {
	s := &authService{gw: gw, logger: log}
	gw.OnAuthExpired(s.forgetSession)
	return s
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var res dto.AuthResponse
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/api/auth/login", Body: req}, &res); err != nil {
		return nil, err
	}
	return s.establish(ctx, &res)
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var res dto.AuthResponse
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: "/api/auth/register", Body: req}, &res); err != nil {
		return nil, err
	}
	return s.establish(ctx, &res)
}

func (s *authService) establish(ctx context.Context, res *dto.AuthResponse) (*dto.User, error) {
	token := &oauth2.Token{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		Expiry:      tokenExpiry(res.AccessToken),
	}
	if err := s.gw.Store().Set(ctx, token); err != nil {
		return nil, err
	}

	user := res.User
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	s.logger.Info("auth", "Session established", map[string]interface{}{
		"user_id": user.Id,
	})
	return &user, nil
}

func (s *authService) Logout(ctx context.Context) error {
	err := s.gw.Store().Clear(ctx)
	s.forgetSession()
	return err
}

func (s *authService) forgetSession() {
	s.mu.Lock()
	s.user = nil
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (s *authService) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *authService) CurrentUser(ctx context.Context) (*dto.User, error) {
	var user dto.User
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: "/api/auth/me"}, &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

func (s *authService) UpdateUser(ctx context.Context, req *dto.UserUpdateRequest) (*dto.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var user dto.User
	if err := s.gw.Do(ctx, gateway.Request{Method: http.MethodPut, Path: "/api/auth/me", Body: req}, &user); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user, nil
}

func (s *authService) IsAuthenticated(ctx context.Context) bool {
	token, err := s.gw.Store().Get(ctx)
	if err != nil || token == nil || token.AccessToken == "" {
		return false
	}

	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = tokenExpiry(token.AccessToken)
	}
	if !expiry.IsZero() && time.Now().After(expiry) {
		s.logger.Info("auth", "Stored credential expired", map[string]interface{}{
			"expired_at": expiry.Format(time.RFC3339),
		})
		_ = s.Logout(ctx)
		return false
	}
	return true
}

func (s *authService) Restore(ctx context.Context) (*dto.User, error) {
	if !s.IsAuthenticated(ctx) {
		return nil, nil
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("auth", "Stored credential rejected, logging out", map[string]interface{}{
			"error": err.Error(),
		})
		// A 401 has already cleared the credential in the gateway.
		if !apperror.Is(err, apperror.KindAuthExpired) {
			_ = s.Logout(ctx)
		}
		return nil, err
	}
	return user, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client has no key and only uses it to skip requests doomed to 401.
func tokenExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
