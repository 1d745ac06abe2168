package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/plantlog/plantlog-server/internal/service"
	"github.com/plantlog/plantlog-server/internal/utils"
)

// Handler holds the dependencies for the API handlers
type Handler struct {
	svc    service.Service
	logger *utils.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger *utils.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	authed := router.Group("/api")
	authed.Use(AuthMiddleware(h.svc))
	{
		authed.GET("/me", h.Me)

		plants := authed.Group("/plants")
		{
			plants.GET("", h.ListPlants)
			plants.POST("", h.CreatePlant)
			plants.PATCH("/:id", h.UpdatePlant)
			plants.DELETE("/:id", h.DeletePlant)
			plants.POST("/:id/events", h.AppendEvent)
			plants.GET("/:id/events", h.GetHistory)
		}
	}
}

// writeError maps service errors to HTTP responses. Storage failures get
// a generic body; the detail is logged, never surfaced.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status:  "error",
			Code:    "NOT_FOUND",
			Message: "Plant not found",
		})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Status:  "error",
			Code:    "CONFLICT",
			Message: "Email already registered",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status:  "error",
			Code:    "INVALID_CREDENTIALS",
			Message: "Invalid email or password",
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Status:  "error",
			Code:    "UNAUTHORIZED",
			Message: "Authentication required",
		})
	default:
		h.logger.Error("internal error: %v", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Status:  "error",
			Code:    "INTERNAL",
			Message: "Internal server error",
		})
	}
}

func writeValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "VALIDATION_ERROR",
		Message: err.Error(),
	})
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, expiresIn int) {
	c.SetCookie(SessionCookieName, token, expiresIn, "/", "", false, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", false, true)
}

// userID returns the authenticated user id set by AuthMiddleware
func userID(c *gin.Context) string {
	return c.GetString("userId")
}

// Auth handlers

// SignUp handles POST /api/auth/signup
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token, resp.ExpiresIn)
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setSessionCookie(c, resp.Token, resp.ExpiresIn)
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /api/auth/logout. It succeeds whether or not the
// request carried a live session.
func (h *Handler) Logout(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if err := h.svc.Logout(c.Request.Context(), token); err != nil {
			h.writeError(c, err)
			return
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, models.StatusResponse{
		Status:  "success",
		Message: "Logged out",
	})
}

// Me handles GET /api/me
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, models.MeResponse{
		Status: "success",
		UserID: userID(c),
		Email:  c.GetString("userEmail"),
	})
}

// Plant handlers

// ListPlants handles GET /api/plants
func (h *Handler) ListPlants(c *gin.Context) {
	plants, err := h.svc.ListPlants(c.Request.Context(), userID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if plants == nil {
		plants = []models.Plant{}
	}

	c.JSON(http.StatusOK, models.PlantListResponse{
		Status: "success",
		Plants: plants,
	})
}

// CreatePlant handles POST /api/plants
func (h *Handler) CreatePlant(c *gin.Context) {
	var req models.CreatePlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	plant, err := h.svc.CreatePlant(c.Request.Context(), userID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.PlantResponse{
		Status: "success",
		Plant:  plant,
	})
}

// UpdatePlant handles PATCH /api/plants/:id
func (h *Handler) UpdatePlant(c *gin.Context) {
	var req models.UpdatePlantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	plant, err := h.svc.UpdatePlant(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PlantResponse{
		Status: "success",
		Plant:  plant,
	})
}

// DeletePlant handles DELETE /api/plants/:id
func (h *Handler) DeletePlant(c *gin.Context) {
	if err := h.svc.DeletePlant(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StatusResponse{
		Status:  "success",
		Message: "Plant deleted",
	})
}

// Event handlers

// AppendEvent handles POST /api/plants/:id/events
func (h *Handler) AppendEvent(c *gin.Context) {
	var req models.AppendEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeValidationError(c, err)
		return
	}

	event, err := h.svc.AppendEvent(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.EventResponse{
		Status:  "success",
		EventID: event.ID,
		PlantID: event.PlantID,
		Kind:    event.Kind,
		At:      event.At.Format(time.RFC3339),
	})
}

// GetHistory handles GET /api/plants/:id/events
func (h *Handler) GetHistory(c *gin.Context) {
	events, err := h.svc.GetHistory(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	if events == nil {
		events = []models.CareEvent{}
	}

	c.JSON(http.StatusOK, models.HistoryResponse{
		Status:  "success",
		PlantID: c.Param("id"),
		Events:  events,
	})
}
