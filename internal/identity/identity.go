// Package identity wraps the hosted identity provider: account creation,
// ID token verification, out-of-band email links and session revocation.
package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrUserNotFound = errors.New("identity not found")
	ErrInvalidToken = errors.New("invalid or expired authentication token")
)

// Identity is an authenticated caller as vouched for by the provider.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// Verifier turns a bearer token into an Identity.
type Verifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*Identity, error)
}

// Provider is the identity collaborator used by registration and bootstrap.
type Provider interface {
	Verifier
	CreateUser(ctx context.Context, name, email, password string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	EmailVerificationLink(ctx context.Context, email string) (string, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
	// RevokeSessions signs uid out everywhere by revoking its refresh tokens.
	RevokeSessions(ctx context.Context, uid string) error
}

type firebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider creates a Provider backed by Firebase Auth.
func NewFirebaseProvider(client *auth.Client) Provider {
	if client == nil {
		panic("Firebase Auth client is not initialized for identity provider")
	}
	return &firebaseProvider{client: client}
}

// VerifyIDToken also rejects tokens issued before a revocation.
func (p *firebaseProvider) VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	token, err := p.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}

func (p *firebaseProvider) CreateUser(ctx context.Context, name, email, password string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(name).
		EmailVerified(false)
	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", fmt.Errorf("failed to create identity for '%s': %w", email, err)
	}
	return record.UID, nil
}

func (p *firebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete identity '%s': %w", uid, err)
	}
	return nil
}

func (p *firebaseProvider) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	link, err := p.client.EmailVerificationLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to generate verification link: %w", err)
	}
	return link, nil
}

func (p *firebaseProvider) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := p.client.PasswordResetLink(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to generate password reset link: %w", err)
	}
	return link, nil
}

func (p *firebaseProvider) RevokeSessions(ctx context.Context, uid string) error {
	if err := p.client.RevokeRefreshTokens(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to revoke sessions for '%s': %w", uid, err)
	}
	return nil
}
