package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/plantlog/plantlog-server/internal/api/testutils"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSignup(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	// Test case 1: Successful signup
	signupReq := models.SignUpRequest{
		Email:    "newuser@example.com",
		Password: "Password123",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/signup",
		signupReq,
		nil,
	)

	assert.Equal(t, http.StatusCreated, w.Code)

	// Keep the first registration's session for later
	var firstResp models.AuthResponse
	assert.NoError(t, jsonUnmarshal(w.Body.Bytes(), &firstResp))
	firstToken := firstResp.Token

	// Test case 2: Duplicate email
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/signup",
		signupReq,
		nil,
	)

	assert.Equal(t, http.StatusConflict, w.Code)

	// The first registration's session must remain valid after the
	// failed duplicate attempt
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/me",
		nil,
		testutils.AuthHeaders(firstToken),
	)

	assert.Equal(t, http.StatusOK, w.Code)

	// Test case 3: Invalid request (missing password)
	invalidReq := models.SignUpRequest{
		Email: "invalid@example.com",
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/signup",
		invalidReq,
		nil,
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	testutils.SignUpUser(t, testCtx, "testuser@example.com", "testpassword")

	// Test case 1: Successful login
	loginReq := models.LoginRequest{
		Email:    "testuser@example.com",
		Password: "testpassword",
	}

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		loginReq,
		nil,
	)

	assert.Equal(t, http.StatusOK, w.Code)

	// Test case 2: Invalid credentials
	invalidLoginReq := models.LoginRequest{
		Email:    "testuser@example.com",
		Password: "wrongpassword",
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		invalidLoginReq,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Test case 3: User not found gets the same response as a wrong
	// password
	nonExistentUserReq := models.LoginRequest{
		Email:    "nonexistent@example.com",
		Password: "testpassword",
	}

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		nonExistentUserReq,
		nil,
	)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var errResp models.ErrorResponse
	assert.NoError(t, jsonUnmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_CREDENTIALS", errResp.Code)
}

func TestLogout(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	_, token := testutils.SignUpUser(t, testCtx, "logout@example.com", "testpassword")

	// Session works before logout
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusOK, w.Code)

	// Logout revokes the session
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/logout", nil, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout is idempotent: revoking an already revoked token is fine
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/logout", nil, testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusOK, w.Code)

	// So is logging out with no token at all
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	userID, _ := testutils.SignUpUser(t, testCtx, "sessions@example.com", "testpassword")

	// No token
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Garbage token
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Expired session: the envelope verifies but the server-side session
	// has passed its fixed lifetime
	expired := testutils.SealSession(t, testCtx, userID, time.Now().UTC().Add(-time.Minute))
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders(expired))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A live session created the same way still works
	live := testutils.SealSession(t, testCtx, userID, time.Now().UTC().Add(time.Hour))
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders(live))
	assert.Equal(t, http.StatusOK, w.Code)

	var me models.MeResponse
	assert.NoError(t, jsonUnmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, userID, me.UserID)
	assert.Equal(t, "sessions@example.com", me.Email)
}

func TestConcurrentSessionsPerUser(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	testutils.SignUpUser(t, testCtx, "multidevice@example.com", "testpassword")

	// Multiple logins coexist; revoking one leaves the others live
	loginReq := models.LoginRequest{Email: "multidevice@example.com", Password: "testpassword"}

	var tokens []string
	for i := 0; i < 3; i++ {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/login", loginReq, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp models.AuthResponse
		assert.NoError(t, jsonUnmarshal(w.Body.Bytes(), &resp))
		tokens = append(tokens, resp.Token)
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/logout", nil, testutils.AuthHeaders(tokens[0]))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders(tokens[0]))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, token := range tokens[1:] {
		w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/me", nil, testutils.AuthHeaders(token))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
