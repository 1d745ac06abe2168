package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/plantlog/plantlog-server/internal/models"
)

// ErrDuplicate is returned when an insert hits a unique constraint
// (currently only users.email).
var ErrDuplicate = errors.New("duplicate row")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Session operations
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) error

	// Plant operations. Read and mutate paths share one visibility rule:
	// a user sees plants they own plus unowned legacy plants.
	CreatePlant(ctx context.Context, plant *models.Plant) error
	ListPlants(ctx context.Context, userID string) ([]models.Plant, error)
	GetVisiblePlant(ctx context.Context, plantID, userID string) (*models.Plant, error)
	UpdatePlant(ctx context.Context, plant *models.Plant) error
	DeletePlant(ctx context.Context, plantID string) error

	// Care event operations
	AppendEvent(ctx context.Context, event *models.CareEvent) error
	ListEvents(ctx context.Context, plantID string) ([]models.CareEvent, error)
	RebuildDerived(ctx context.Context, plantID string) error
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() *sqlx.DB {
	return r.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// User repository methods
func (r *PostgresRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Password, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}

	return err
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = $1`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Session repository methods
func (r *PostgresRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.CreatedAt, session.ExpiresAt)

	return err
}

func (r *PostgresRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	query := `SELECT * FROM sessions WHERE token = $1`

	var session models.Session
	err := r.db.GetContext(ctx, &session, query, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Session not found
		}
		return nil, err
	}

	return &session, nil
}

// DeleteSession removes a session binding. Deleting an absent token is
// not an error, so logout stays idempotent.
func (r *PostgresRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	return err
}

func (r *PostgresRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	return err
}

// Plant repository methods
func (r *PostgresRepository) CreatePlant(ctx context.Context, plant *models.Plant) error {
	query := `
		INSERT INTO plants (id, name, species, location, water_interval_days,
			repot_interval_days, notes, owner_id, last_watered, last_repotted,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// Generate a new UUID if not provided
	if plant.ID == "" {
		plant.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	plant.CreatedAt = now
	plant.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		plant.ID, plant.Name, plant.Species, plant.Location,
		plant.WaterIntervalDays, plant.RepotIntervalDays, plant.Notes,
		plant.Owner, plant.LastWatered, plant.LastRepotted,
		plant.CreatedAt, plant.UpdatedAt)

	return err
}

func (r *PostgresRepository) ListPlants(ctx context.Context, userID string) ([]models.Plant, error) {
	query := `
		SELECT * FROM plants
		WHERE owner_id = $1 OR owner_id IS NULL
		ORDER BY name, id
	`

	var plants []models.Plant
	err := r.db.SelectContext(ctx, &plants, query, userID)
	if err != nil {
		return nil, err
	}

	return plants, nil
}

// GetVisiblePlant returns the plant only if the user owns it or it is
// unowned. A plant owned by someone else comes back as (nil, nil), the
// same as a missing plant, so callers cannot tell the two apart.
func (r *PostgresRepository) GetVisiblePlant(ctx context.Context, plantID, userID string) (*models.Plant, error) {
	query := `
		SELECT * FROM plants
		WHERE id = $1 AND (owner_id = $2 OR owner_id IS NULL)
	`

	var plant models.Plant
	err := r.db.GetContext(ctx, &plant, query, plantID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Plant not found or not visible
		}
		return nil, err
	}

	return &plant, nil
}

func (r *PostgresRepository) UpdatePlant(ctx context.Context, plant *models.Plant) error {
	query := `
		UPDATE plants
		SET name = $2, species = $3, location = $4, water_interval_days = $5,
			repot_interval_days = $6, notes = $7, updated_at = $8
		WHERE id = $1
	`

	plant.UpdatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		plant.ID, plant.Name, plant.Species, plant.Location,
		plant.WaterIntervalDays, plant.RepotIntervalDays, plant.Notes,
		plant.UpdatedAt)

	return err
}

// DeletePlant removes a plant and its entire event history in one
// transaction so no orphaned events survive.
func (r *PostgresRepository) DeletePlant(ctx context.Context, plantID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Delete events first (due to foreign key constraint)
	_, err = tx.ExecContext(ctx, `DELETE FROM care_events WHERE plant_id = $1`, plantID)
	if err != nil {
		return err
	}

	// Delete the plant
	_, err = tx.ExecContext(ctx, `DELETE FROM plants WHERE id = $1`, plantID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Care event repository methods

// derivedColumn maps an event kind to the plant column caching the most
// recent timestamp of that kind.
func derivedColumn(kind string) string {
	if kind == models.EventRepotted {
		return "last_repotted"
	}
	return "last_watered"
}

// AppendEvent inserts an immutable event row and advances the plant's
// cached last-event timestamp for that kind, in one transaction. The
// cache only moves forward: a backdated event older than the current
// cached value leaves it untouched, so the cache always equals the max
// event timestamp of its kind no matter the insertion order.
func (r *PostgresRepository) AppendEvent(ctx context.Context, event *models.CareEvent) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	// Generate a new UUID if not provided
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	// Set timestamp if not provided
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	query := `
		INSERT INTO care_events (id, plant_id, kind, at, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`

	err = tx.QueryRowContext(ctx, query,
		event.ID, event.PlantID, event.Kind, event.At, event.UserID).Scan(&event.Seq)
	if err != nil {
		return err
	}

	column := derivedColumn(event.Kind)
	update := `
		UPDATE plants SET ` + column + ` = $2, updated_at = $3
		WHERE id = $1 AND (` + column + ` IS NULL OR ` + column + ` < $2)
	`

	_, err = tx.ExecContext(ctx, update, event.PlantID, event.At, time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PostgresRepository) ListEvents(ctx context.Context, plantID string) ([]models.CareEvent, error) {
	query := `
		SELECT * FROM care_events
		WHERE plant_id = $1
		ORDER BY at DESC, seq DESC
	`

	var events []models.CareEvent
	err := r.db.SelectContext(ctx, &events, query, plantID)
	if err != nil {
		return nil, err
	}

	return events, nil
}

// RebuildDerived recomputes both cached last-event timestamps from the
// ledger. The caches are pure projections of MAX(at) per kind, so this is
// always safe to run as a repair step.
func (r *PostgresRepository) RebuildDerived(ctx context.Context, plantID string) error {
	query := `
		UPDATE plants SET
			last_watered = (SELECT MAX(at) FROM care_events WHERE plant_id = $1 AND kind = $2),
			last_repotted = (SELECT MAX(at) FROM care_events WHERE plant_id = $1 AND kind = $3),
			updated_at = $4
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		plantID, models.EventWatered, models.EventRepotted, time.Now().UTC())

	return err
}
