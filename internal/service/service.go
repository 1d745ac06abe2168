package service

import (
	"context"
	"errors"
	"time"

	"github.com/plantlog/plantlog-server/internal/config"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/plantlog/plantlog-server/internal/repository"
	"github.com/plantlog/plantlog-server/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// Sentinel errors forming the service error taxonomy. Handlers map these
// to HTTP statuses; anything else is an internal storage failure.
var (
	// ErrNotFound covers both a missing plant and a plant owned by a
	// different user. The two are deliberately indistinguishable so that
	// failed access attempts do not reveal whether the plant exists.
	ErrNotFound = errors.New("plant not found")

	// ErrConflict means the email handle is already registered
	ErrConflict = errors.New("email already registered")

	// ErrInvalidCredentials covers unknown email and wrong password alike
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized means no valid session accompanied the request
	ErrUnauthorized = errors.New("authentication required")
)

// Service defines all the business logic operations
type Service interface {
	// Authentication and sessions
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (*models.User, error)

	// Plant operations
	ListPlants(ctx context.Context, userID string) ([]models.Plant, error)
	CreatePlant(ctx context.Context, userID string, req models.CreatePlantRequest) (*models.Plant, error)
	UpdatePlant(ctx context.Context, userID, plantID string, req models.UpdatePlantRequest) (*models.Plant, error)
	DeletePlant(ctx context.Context, userID, plantID string) error

	// Care event ledger
	AppendEvent(ctx context.Context, userID, plantID string, req models.AppendEventRequest) (*models.CareEvent, error)
	GetHistory(ctx context.Context, userID, plantID string) ([]models.CareEvent, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo       repository.Repository
	signingKey []byte
	sessionTTL time.Duration
	bcryptCost int
	// dummyHash is compared against on unknown-email logins so that the
	// unknown-handle and wrong-password failures cost the same
	dummyHash []byte
	logger    *utils.Logger
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, auth config.AuthConfig, logger *utils.Logger) Service {
	dummy, err := bcrypt.GenerateFromPassword([]byte("plantlog-timing-filler"), auth.BcryptCost)
	if err != nil {
		// Only possible with an out-of-range cost; fall back to default
		dummy, _ = bcrypt.GenerateFromPassword([]byte("plantlog-timing-filler"), bcrypt.DefaultCost)
	}

	return &DefaultService{
		repo:       repo,
		signingKey: []byte(auth.SessionKey),
		sessionTTL: time.Duration(auth.SessionTTLHours) * time.Hour,
		bcryptCost: auth.BcryptCost,
		dummyHash:  dummy,
		logger:     logger,
	}
}
