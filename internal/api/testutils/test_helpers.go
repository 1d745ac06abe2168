package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/plantlog/plantlog-server/internal/api"
	"github.com/plantlog/plantlog-server/internal/config"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/plantlog/plantlog-server/internal/repository"
	"github.com/plantlog/plantlog-server/internal/service"
	"github.com/plantlog/plantlog-server/internal/utils"
	"github.com/stretchr/testify/require"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router     *gin.Engine
	Repository repository.Repository
	Service    service.Service
	SessionKey []byte
	DB         *sqlx.DB
}

// SetupTestContext creates a new test context with initialized dependencies
func SetupTestContext(t *testing.T) *TestContext {
	// Load configuration from environment
	cfg := config.LoadConfig()

	// Override with test-specific config
	if cfg.Database.DBName == "plantlog" && cfg.Database.TestDBName != "" {
		cfg.Database.DBName = cfg.Database.TestDBName
	} else if cfg.Database.TestDBName == "" {
		// Fallback to hardcoded test DB if not in environment
		cfg.Database.DBName = "plantlog_test"
	}

	// Use a test signing key and a cheap hash cost to keep tests fast
	cfg.Auth.SessionKey = "test-secret-key"
	cfg.Auth.BcryptCost = 4

	// Set up database
	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")

	cleanDatabase(t, db)

	logger := utils.NewLogger()

	// Create repository
	repo := repository.NewPostgresRepository(db)

	// Create service
	svc := service.NewDefaultService(repo, cfg.Auth, logger)

	// Create API handler
	handler := api.NewHandler(svc, logger)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.Default()

	// Set up routes
	handler.SetupRoutes(router)

	return &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		SessionKey: []byte(cfg.Auth.SessionKey),
		DB:         db,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(tc *TestContext) {
	if tc.DB != nil {
		tc.DB.Close()
	}
}

// cleanDatabase removes all rows left over from previous runs
func cleanDatabase(t *testing.T, db *sqlx.DB) {
	for _, table := range []string{"care_events", "plants", "sessions", "users"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clean table %s", table)
	}
}

// SignUpUser registers a user through the API and returns the user id and
// session token
func SignUpUser(t *testing.T, tc *TestContext, email, password string) (string, string) {
	w := PerformRequest(tc.Router, http.MethodPost, "/api/auth/signup", models.SignUpRequest{
		Email:    email,
		Password: password,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, "Failed to sign up user %s: %s", email, w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	return resp.UserID, resp.Token
}

// CreatePlant creates a plant through the API and returns its id
func CreatePlant(t *testing.T, tc *TestContext, token string, req models.CreatePlantRequest) string {
	w := PerformRequest(tc.Router, http.MethodPost, "/api/plants", req, AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, "Failed to create plant: %s", w.Body.String())

	var resp models.PlantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Plant)

	return resp.Plant.ID
}

// CreateUnownedPlant inserts a legacy plant with no owner directly
// through the repository
func CreateUnownedPlant(t *testing.T, tc *TestContext, name string) string {
	plant := &models.Plant{
		ID:                uuid.New().String(),
		Name:              name,
		WaterIntervalDays: 7,
		RepotIntervalDays: 365,
	}
	err := tc.Repository.CreatePlant(context.Background(), plant)
	require.NoError(t, err, "Failed to create unowned plant")

	return plant.ID
}

// SealSession signs a session envelope directly, bypassing the service,
// so tests can control the server-side expiry independently of the
// envelope's own exp claim.
func SealSession(t *testing.T, tc *TestContext, userID string, expiresAt time.Time) string {
	sid := uuid.New().String()
	err := tc.Repository.CreateSession(context.Background(), &models.Session{
		Token:     sid,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
		ExpiresAt: expiresAt,
	})
	require.NoError(t, err, "Failed to create session row")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	signed, err := token.SignedString(tc.SessionKey)
	require.NoError(t, err, "Failed to sign session envelope")

	return signed
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
