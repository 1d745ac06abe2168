package service

import (
	"context"
	"fmt"

	"github.com/plantlog/plantlog-server/internal/models"
)

// Care cadence defaults applied when a plant is created without explicit
// intervals.
const (
	DefaultWaterIntervalDays = 7
	DefaultRepotIntervalDays = 365
)

// ListPlants returns the plants visible to the user: those they own plus
// unowned legacy plants.
func (s *DefaultService) ListPlants(ctx context.Context, userID string) ([]models.Plant, error) {
	plants, err := s.repo.ListPlants(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing plants: %w", err)
	}

	return plants, nil
}

// CreatePlant creates a plant owned by the user, filling in interval
// defaults when they are omitted.
func (s *DefaultService) CreatePlant(ctx context.Context, userID string, req models.CreatePlantRequest) (*models.Plant, error) {
	waterInterval := req.WaterIntervalDays
	if waterInterval == 0 {
		waterInterval = DefaultWaterIntervalDays
	}
	repotInterval := req.RepotIntervalDays
	if repotInterval == 0 {
		repotInterval = DefaultRepotIntervalDays
	}

	plant := &models.Plant{
		Name:              req.Name,
		Species:           req.Species,
		Location:          req.Location,
		WaterIntervalDays: waterInterval,
		RepotIntervalDays: repotInterval,
		Notes:             req.Notes,
		Owner:             models.OwnedBy(userID),
	}

	if err := s.repo.CreatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("error creating plant: %w", err)
	}

	return plant, nil
}

// UpdatePlant applies a partial update: only fields present in the
// request overwrite; everything else keeps its prior value. The ownership
// check runs first, so nothing is written when the plant is not visible.
func (s *DefaultService) UpdatePlant(ctx context.Context, userID, plantID string, req models.UpdatePlantRequest) (*models.Plant, error) {
	plant, err := s.repo.GetVisiblePlant(ctx, plantID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting plant: %w", err)
	}

	if plant == nil {
		return nil, ErrNotFound
	}

	if req.Name != nil {
		plant.Name = *req.Name
	}
	if req.Species != nil {
		plant.Species = *req.Species
	}
	if req.Location != nil {
		plant.Location = *req.Location
	}
	if req.WaterIntervalDays != nil {
		plant.WaterIntervalDays = *req.WaterIntervalDays
	}
	if req.RepotIntervalDays != nil {
		plant.RepotIntervalDays = *req.RepotIntervalDays
	}
	if req.Notes != nil {
		plant.Notes = *req.Notes
	}

	if err := s.repo.UpdatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("error updating plant: %w", err)
	}

	return plant, nil
}

// DeletePlant removes a visible plant together with its whole event
// history.
func (s *DefaultService) DeletePlant(ctx context.Context, userID, plantID string) error {
	plant, err := s.repo.GetVisiblePlant(ctx, plantID, userID)
	if err != nil {
		return fmt.Errorf("error getting plant: %w", err)
	}

	if plant == nil {
		return ErrNotFound
	}

	if err := s.repo.DeletePlant(ctx, plant.ID); err != nil {
		return fmt.Errorf("error deleting plant: %w", err)
	}

	return nil
}
