package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/plantlog/plantlog-server/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// SignUp registers a new user and logs them straight in
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Create the user. Email uniqueness is enforced by the database, so a
	// concurrent registration race still surfaces as a conflict.
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	// Issue a session so registration doubles as login
	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresIn: int(s.sessionTTL.Seconds()),
	}, nil
}

// Login verifies credentials and issues a new session. Unknown email and
// wrong password return the same error, and the unknown-email path still
// runs a bcrypt comparison so the two failures take the same time.
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresIn: int(s.sessionTTL.Seconds()),
	}, nil
}

// Logout revokes the session named by the token. Revoking an absent,
// expired or unverifiable token is not an error.
func (s *DefaultService) Logout(ctx context.Context, token string) error {
	sid, err := s.openToken(token)
	if err != nil {
		return nil
	}

	if err := s.repo.DeleteSession(ctx, sid); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}

	return nil
}

// ResolveSession maps the signed token from a request to the user who
// owns the session. The session lifetime is fixed at creation and is not
// extended here.
func (s *DefaultService) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	sid, err := s.openToken(token)
	if err != nil {
		return nil, ErrUnauthorized
	}

	session, err := s.repo.GetSession(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	if session == nil {
		return nil, ErrUnauthorized
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		// Opportunistic cleanup; failure here doesn't change the outcome
		if err := s.repo.DeleteSession(ctx, sid); err != nil {
			s.logger.Error("failed to delete expired session: %v", err)
		}
		return nil, ErrUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("error getting session user: %w", err)
	}

	if user == nil {
		return nil, ErrUnauthorized
	}

	return user, nil
}

// createSession generates an opaque random session id, persists it, and
// seals it into the signed envelope handed to the client.
func (s *DefaultService) createSession(ctx context.Context, userID string) (string, error) {
	sid, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("error generating session id: %w", err)
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:     sid,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return "", fmt.Errorf("error creating session: %w", err)
	}

	return s.sealToken(sid, session.ExpiresAt)
}

// newSessionID returns a base64url encoding of 32 random bytes
func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// sealToken wraps the session id in a signed envelope. The session itself
// stays server-side and revocable; the signature only makes the carrier
// tamper-evident.
func (s *DefaultService) sealToken(sid string, expires time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": expires.Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// openToken verifies the envelope signature and extracts the session id
func (s *DefaultService) openToken(envelope string) (string, error) {
	token, err := jwt.Parse(envelope, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrUnauthorized
	}

	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", ErrUnauthorized
	}

	return sid, nil
}
