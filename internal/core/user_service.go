package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/db"
	"eatlens-backend-go/internal/identity"
	"eatlens-backend-go/internal/mailer"
	"eatlens-backend-go/internal/models"
)

const maxHealthGoalLength = 100

type userService struct {
	users      db.UserRepository
	identities identity.Provider
	mail       mailer.Mailer
	adminEmail string
	clock      Clock
	logger     *zap.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(users db.UserRepository, identities identity.Provider, mail mailer.Mailer, adminEmail string, clock Clock, logger *zap.Logger) UserService {
	return &userService{
		users:      users,
		identities: identities,
		mail:       mail,
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		clock:      clock,
		logger:     logger,
	}
}

// Register creates the identity and its profile. If the profile cannot be
// stored the identity is deleted again so no orphan is left behind.
func (s *userService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || len(req.Password) < 6 {
		return nil, ErrInvalidRegistration
	}

	uid, err := s.identities.CreateUser(ctx, name, email, req.Password)
	if errors.Is(err, identity.ErrEmailExists) {
		return nil, ErrEmailAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	role := models.RoleUser
	if email == s.adminEmail {
		role = models.RoleAdmin
	}
	user := &models.User{
		ID:            uid,
		Name:          name,
		Email:         email,
		Plan:          models.PlanFree,
		LastResetDate: models.MillisOf(s.clock.Now()),
		HealthGoal:    models.DefaultHealthGoal,
		Role:          role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if derr := s.identities.DeleteUser(ctx, uid); derr != nil {
			s.logger.Error("Failed to roll back identity after profile error", zap.String("uid", uid), zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("User registered", zap.String("uid", uid), zap.String("role", string(role)))
	if err := s.sendVerification(ctx, user.Name, email); err != nil {
		s.logger.Warn("Failed to send verification email", zap.String("uid", uid), zap.Error(err))
	}
	return user, nil
}

// ResendVerification answers the same way whether or not the address exists.
func (s *userService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	err := s.sendVerification(ctx, "", email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil
	}
	return err
}

// SendPasswordReset answers the same way whether or not the address exists.
func (s *userService) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	link, err := s.identities.PasswordResetLink(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to generate password reset link: %w", err)
	}
	body := fmt.Sprintf("We received a request to reset your EatLens password.\n\nReset it here: %s\n\nIf you did not ask for this, ignore this email.", link)
	if err := s.mail.Send(ctx, email, "Reset your EatLens password", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *userService) sendVerification(ctx context.Context, name, email string) error {
	link, err := s.identities.EmailVerificationLink(ctx, email)
	if err != nil {
		return err
	}
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	body := fmt.Sprintf("%s,\n\nConfirm your email address to start using EatLens: %s", greeting, link)
	return s.mail.Send(ctx, email, "Verify your EatLens account", body)
}

func (s *userService) UpdateHealthGoal(ctx context.Context, sess *Session, goal string) (*models.User, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" || len(goal) > maxHealthGoalLength {
		return nil, ErrInvalidHealthGoal
	}

	patch := models.UserPatch{HealthGoal: models.Ptr(goal)}
	err := sess.Optimistic(patch, func() error {
		return s.users.Update(ctx, sess.UserID(), patch)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update health goal: %w", notFoundAs(err, ErrUserNotFound))
	}
	u := sess.Profile()
	return &u, nil
}
