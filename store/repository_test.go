package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/VanitasCaesar1/hospital/models"
)

// newTestStore connects to the MongoDB named by MONGODB_TEST_URL and returns a
// store on a throwaway database that is dropped when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URL")
	if uri == "" {
		t.Skip("MONGODB_TEST_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := "hospital_test_" + uuid.New().String()[:8]
	s, err := Connect(ctx, uri, name, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.EnsureIndexes(ctx))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.db.Drop(ctx)
		_ = s.Close(ctx)
	})
	return s
}

func appointment(id, doctorID, date, slot string) *models.Appointment {
	return &models.Appointment{
		ID:        id,
		Reference: strings.ToUpper(id),
		DoctorID:  doctorID,
		Date:      date,
		Slot:      slot,
		Status:    models.AppointmentPending,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestAppointments_ActiveSlotIsUnique(t *testing.T) {
	s := newTestStore(t)
	repo := s.Appointments()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, appointment("a1", "doc-1", "2024-06-10", "9:00 AM")))
	err := repo.Create(ctx, appointment("a2", "doc-1", "2024-06-10", "9:00 AM"))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Same slot for another doctor or date is fine.
	require.NoError(t, repo.Create(ctx, appointment("a3", "doc-2", "2024-06-10", "9:00 AM")))
	require.NoError(t, repo.Create(ctx, appointment("a4", "doc-1", "2024-06-11", "9:00 AM")))

	booked, err := repo.BookedSlots(ctx, "doc-1", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"9:00 AM"}, booked)

	// Cancelling drops the appointment out of the partial index.
	updated, err := repo.UpdateStatus(ctx, "a1", models.AppointmentPending, models.AppointmentCancelled)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	booked, err = repo.BookedSlots(ctx, "doc-1", "2024-06-10")
	require.NoError(t, err)
	assert.Empty(t, booked)
	require.NoError(t, repo.Create(ctx, appointment("a5", "doc-1", "2024-06-10", "9:00 AM")))

	_, err = repo.UpdateStatus(ctx, "a1", models.AppointmentPending, models.AppointmentConfirmed)
	assert.ErrorIs(t, err, ErrStatusChanged)
}

func TestProducts_ReserveAndRelease(t *testing.T) {
	s := newTestStore(t)
	repo := s.Products()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Product{
		ID: "p1", Name: "Paracetamol", Slug: "paracetamol", Price: 20, Stock: 5, IsActive: true,
	}))
	require.NoError(t, repo.Create(ctx, &models.Product{
		ID: "p2", Name: "Old Syrup", Slug: "old-syrup", Price: 90, Stock: 5, IsActive: false,
	}))

	require.NoError(t, repo.Reserve(ctx, "paracetamol", 3))
	assert.ErrorIs(t, repo.Reserve(ctx, "paracetamol", 3), ErrInsufficientStock)
	require.NoError(t, repo.Reserve(ctx, "paracetamol", 2))
	assert.ErrorIs(t, repo.Reserve(ctx, "old-syrup", 1), ErrInsufficientStock)

	require.NoError(t, repo.Release(ctx, "paracetamol", 4))
	product, err := repo.GetBySlug(ctx, "paracetamol")
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)

	assert.ErrorIs(t, repo.Release(ctx, "missing", 1), ErrNotFound)

	taken, err := repo.SlugExists(ctx, "paracetamol")
	require.NoError(t, err)
	assert.True(t, taken)
	assert.ErrorIs(t, repo.Create(ctx, &models.Product{ID: "p3", Name: "Dup", Slug: "paracetamol"}), ErrDuplicate)
}

func TestOrders_ConditionalStatus(t *testing.T) {
	s := newTestStore(t)
	repo := s.Orders()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Order{
		ID: "o1", Reference: "REF12345", Status: models.OrderPending, CreatedAt: time.Now(),
	}))

	require.NoError(t, repo.UpdateStatus(ctx, "o1", models.OrderPending, models.OrderCancelled))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "o1", models.OrderPending, models.OrderCancelled), ErrStatusChanged)

	order, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, order.Status)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
