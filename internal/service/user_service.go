package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fashionstock-dashboard/internal/broker"
	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/util"

	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

const minPasswordLength = 6

// UserService backs the user management page
type UserService struct {
	backend  UserBackend
	cache    SnapshotCache
	events   EventPublisher
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewUserService(backend UserBackend, cache SnapshotCache, events EventPublisher, cacheTTL time.Duration) *UserService {
	return &UserService{
		backend:  backend,
		cache:    cache,
		events:   events,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// UserView is the filtered account list with its counters
type UserView struct {
	Users      []models.User `json:"users"`
	Roles      []string      `json:"roles"`
	Total      int           `json:"total"`
	AdminCount int           `json:"adminCount"`
	Source     string        `json:"source"`
	Live       bool          `json:"live"`
}

func (s *UserService) List(ctx context.Context, q listview.Query) (*UserView, error) {
	ctx, span := util.StartSpan(ctx, "UserService.List")
	defer span.End()

	users, source, err := cachedFetch(ctx, s.cache, s.cacheTTL, s.logger, CacheUsers, s.backend.Users)
	if err != nil || source == SourceCache {
		util.FallbackServedTotal.WithLabelValues(source, CacheUsers).Inc()
	}
	return userView(users, q, source), nil
}

func userView(users []models.User, q listview.Query, source string) *UserView {
	if users == nil {
		users = []models.User{}
	}
	admins := 0
	for _, u := range users {
		if strings.EqualFold(u.Role, "admin") {
			admins++
		}
	}
	return &UserView{
		Users:      listview.Apply(users, q, listview.Users),
		Roles:      listview.Distinct(users, func(u models.User) string { return u.Role }),
		Total:      len(users),
		AdminCount: admins,
		Source:     source,
		Live:       source == SourceLive,
	}
}

// Create validates and submits a new account, then returns the re-fetched list.
func (s *UserService) Create(ctx context.Context, in models.UserInput, q listview.Query) (*UserView, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Create")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if err := validateUser(in); err != nil {
		return nil, err
	}

	if err := s.backend.CreateUser(ctx, in); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("User created", zap.String("email", in.Email), zap.String("role", in.Role))

	invalidate(ctx, s.cache, s.logger, CacheUsers)
	if s.events != nil {
		event := &models.UserCreatedEvent{
			BaseEvent: broker.NewBaseEvent(models.EventTypeUserCreated),
			Email:     in.Email,
			Role:      in.Role,
		}
		if err := s.events.PublishUserCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish UserCreated event", zap.String("email", in.Email), zap.Error(err))
		}
	}

	users, err := s.backend.Users(ctx)
	if err != nil {
		s.logger.Warn("User list re-fetch after write failed", zap.Error(err))
		return userView(nil, q, SourceEmpty), nil
	}
	return userView(users, q, SourceLive), nil
}

func validateUser(in models.UserInput) error {
	var v validator
	v.check(in.Name != "", "name", "Name is required")
	v.check(in.Email != "", "email", "Email is required")
	v.check(emailPattern.MatchString(in.Email), "email", "Email is invalid")
	v.check(in.Password != "", "password", "Password is required")
	v.check(len(in.Password) >= minPasswordLength, "password", "Password must be at least 6 characters")
	v.check(in.Role != "", "role", "Role is required")
	return v.err()
}
