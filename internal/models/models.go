package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds recorded in the care ledger
const (
	EventWatered  = "watered"
	EventRepotted = "repotted"
)

// User represents a registered user
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"` // bcrypt hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Session binds an opaque random token to a user for a fixed lifetime.
// The expiry is set once at creation and never extended on use.
type Session struct {
	Token     string    `db:"token" json:"-"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}

// Ownership is the owner slot of a plant: either a user id, or unowned.
// Unowned plants predate per-user accounts and stay visible to every
// authenticated user instead of becoming orphaned.
type Ownership struct {
	UserID string
	Owned  bool
}

// OwnedBy returns an Ownership naming the given user
func OwnedBy(userID string) Ownership {
	return Ownership{UserID: userID, Owned: true}
}

// Scan implements sql.Scanner over a nullable owner column
func (o *Ownership) Scan(src interface{}) error {
	if src == nil {
		*o = Ownership{}
		return nil
	}
	switch v := src.(type) {
	case string:
		*o = OwnedBy(v)
	case []byte:
		*o = OwnedBy(string(v))
	default:
		return fmt.Errorf("ownership: cannot scan column of type %T", src)
	}
	return nil
}

// Value implements driver.Valuer; unowned stores as NULL
func (o Ownership) Value() (driver.Value, error) {
	if !o.Owned {
		return nil, nil
	}
	return o.UserID, nil
}

// MarshalJSON renders the owner as a user id string or null
func (o Ownership) MarshalJSON() ([]byte, error) {
	if !o.Owned {
		return []byte("null"), nil
	}
	return json.Marshal(o.UserID)
}

// UnmarshalJSON accepts a user id string or null
func (o *Ownership) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Ownership{}
		return nil
	}
	var userID string
	if err := json.Unmarshal(data, &userID); err != nil {
		return err
	}
	*o = OwnedBy(userID)
	return nil
}

// Plant represents a tracked plant. LastWatered and LastRepotted are
// caches over the care_events ledger (the max timestamp per kind), not
// sources of truth, and are always reconstructible from it.
type Plant struct {
	ID                string     `db:"id" json:"id"`
	Name              string     `db:"name" json:"name"`
	Species           string     `db:"species" json:"species"`
	Location          string     `db:"location" json:"location"`
	WaterIntervalDays int        `db:"water_interval_days" json:"waterIntervalDays"`
	RepotIntervalDays int        `db:"repot_interval_days" json:"repotIntervalDays"`
	Notes             string     `db:"notes" json:"notes"`
	Owner             Ownership  `db:"owner_id" json:"ownerId"`
	LastWatered       *time.Time `db:"last_watered" json:"lastWatered"`
	LastRepotted      *time.Time `db:"last_repotted" json:"lastRepotted"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// CareEvent is one immutable ledger row. Rows are never updated or deleted
// individually; they only go away when their plant is deleted. Seq is a
// database-assigned insertion sequence used to break ties between events
// that share a timestamp.
type CareEvent struct {
	ID      string    `db:"id" json:"id"`
	PlantID string    `db:"plant_id" json:"plantId"`
	Kind    string    `db:"kind" json:"kind"`
	At      time.Time `db:"at" json:"at"`
	UserID  string    `db:"user_id" json:"userId"`
	Seq     int64     `db:"seq" json:"-"`
}
