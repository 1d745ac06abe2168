package api_test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/plantlog/plantlog-server/internal/api/testutils"
	"github.com/plantlog/plantlog-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Concurrent appends with mixed backdated and current timestamps must
// leave the ledger complete and the derived cache at the maximum event
// timestamp, whatever order the writes land in.
func TestConcurrentAppends(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	_, token := testutils.SignUpUser(t, testCtx, "concurrent@example.com", "testpassword")
	plantID := testutils.CreatePlant(t, testCtx, token, models.CreatePlantRequest{Name: "Fern"})

	const numGoroutines = 8
	const appendsPerGoroutine = 5

	var wg sync.WaitGroup
	codes := make(chan int, numGoroutines*appendsPerGoroutine)

	// Every goroutine appends a spread of days in January 2024, with
	// plenty of overlap between goroutines
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(routineID int) {
			defer wg.Done()

			for j := 0; j < appendsPerGoroutine; j++ {
				date := fmt.Sprintf("2024-01-%02d", 1+routineID*3+j%3)

				w := testutils.PerformRequest(
					testCtx.Router,
					http.MethodPost,
					fmt.Sprintf("/api/plants/%s/events", plantID),
					models.AppendEventRequest{Kind: models.EventWatered, Date: date},
					testutils.AuthHeaders(token),
				)

				codes <- w.Code
			}
		}(i)
	}

	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusCreated, code)
	}

	// Every append landed as its own ledger row
	events := fetchHistory(t, testCtx, token, plantID)
	assert.Len(t, events, numGoroutines*appendsPerGoroutine)

	// The history is sorted newest first
	for k := 1; k < len(events); k++ {
		assert.False(t, events[k-1].At.Before(events[k].At), "history out of order at %d", k)
	}

	// The cache equals the max event timestamp
	var max time.Time
	for _, e := range events {
		if e.At.After(max) {
			max = e.At
		}
	}

	plant := fetchPlant(t, testCtx, token, plantID)
	require.NotNil(t, plant.LastWatered)
	assert.True(t, plant.LastWatered.Equal(max), "lastWatered = %v, want max %v", plant.LastWatered, max)
}
