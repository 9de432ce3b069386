package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/session"
	"fashionstock-dashboard/internal/util"

	"go.uber.org/zap"
)

// AuthService exchanges backend credentials for a dashboard session
type AuthService struct {
	backend AuthBackend
	issuer  *session.Issuer
	logger  *zap.Logger
}

func NewAuthService(backend AuthBackend, issuer *session.Issuer) *AuthService {
	return &AuthService{backend: backend, issuer: issuer, logger: util.GetLogger()}
}

// LoginResult carries the signed session token
type LoginResult struct {
	Token   string          `json:"token"`
	Session session.Session `json:"session"`
}

// Login validates the form, lets the backend verify the credentials and
// signs a session for the returned identity.
func (s *AuthService) Login(ctx context.Context, in models.LoginRequest) (*LoginResult, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	var v validator
	v.check(in.Email != "", "email", "Email is required")
	v.check(in.Password != "", "password", "Password is required")
	v.check(in.Role != "", "role", "Role is required")
	if err := v.err(); err != nil {
		return nil, err
	}

	user, err := s.backend.Login(ctx, in)
	if err != nil {
		util.RecordError(span, err)
		s.logger.Info("Login rejected", zap.String("email", in.Email), zap.Error(err))
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
			return nil, fmt.Errorf("login failed: %w: %w", ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}

	token, sess, err := s.issuer.Issue(session.Session{Email: user.Email, Name: user.Name, Role: user.Role})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session issued", zap.String("email", sess.Email), zap.String("role", sess.Role))
	return &LoginResult{Token: token, Session: sess}, nil
}
