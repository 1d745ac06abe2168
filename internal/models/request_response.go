package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreatePlantRequest struct {
	Name              string `json:"name" binding:"required"`
	Species           string `json:"species"`
	Location          string `json:"location"`
	WaterIntervalDays int    `json:"waterIntervalDays" binding:"omitempty,min=1"`
	RepotIntervalDays int    `json:"repotIntervalDays" binding:"omitempty,min=1"`
	Notes             string `json:"notes"`
}

// UpdatePlantRequest carries a partial update: nil fields keep their
// current values.
type UpdatePlantRequest struct {
	Name              *string `json:"name" binding:"omitempty,min=1"`
	Species           *string `json:"species"`
	Location          *string `json:"location"`
	WaterIntervalDays *int    `json:"waterIntervalDays" binding:"omitempty,min=1"`
	RepotIntervalDays *int    `json:"repotIntervalDays" binding:"omitempty,min=1"`
	Notes             *string `json:"notes"`
}

type AppendEventRequest struct {
	Kind string `json:"kind" binding:"required,oneof=watered repotted"`
	// Date is optional: "YYYY-MM-DD" or RFC3339. Anything else falls
	// back to the current time.
	Date string `json:"date"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type MeResponse struct {
	Status string `json:"status"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type PlantResponse struct {
	Status string `json:"status"`
	Plant  *Plant `json:"plant"`
}

type PlantListResponse struct {
	Status string  `json:"status"`
	Plants []Plant `json:"plants"`
}

type EventResponse struct {
	Status  string `json:"status"`
	EventID string `json:"eventId"`
	PlantID string `json:"plantId"`
	Kind    string `json:"kind"`
	At      string `json:"at"` // effective timestamp, RFC3339
}

type HistoryResponse struct {
	Status  string      `json:"status"`
	PlantID string      `json:"plantId"`
	Events  []CareEvent `json:"events"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
