package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/cache"
	"github.com/mmynk/rentroll/internal/checkout"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
	"github.com/mmynk/rentroll/internal/storage/sqlstore"
)

type testEnv struct {
	store     storage.Store
	cache     *cache.Memory
	blobs     *memoryBlobs
	provider  *checkout.Mock
	property  *PropertyService
	tenants   *TenantService
	payments  *PaymentService
	documents *DocumentService
	auth      *AuthService
}

// setupTestEnv wires every service against a temp SQLite database.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.Open(sqlstore.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	env := &testEnv{
		store:    store,
		cache:    cache.NewMemory(),
		blobs:    newMemoryBlobs(),
		provider: checkout.NewMock("whsec"),
	}
	adminHash, err := auth.HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	env.property = NewPropertyService(store, env.cache, time.Minute, eventlog.Discard)
	env.tenants = NewTenantService(store, env.cache, eventlog.Discard)
	env.payments = NewPaymentService(store, env.cache, env.provider, nil, eventlog.Discard, "http://rent.test/")
	env.documents = NewDocumentService(store, env.blobs, eventlog.Discard)
	env.auth = NewAuthService(
		auth.NewAdminAuthenticator("admin", adminHash),
		auth.NewTenantAuthenticator(store),
		auth.NewJWTManager("test-secret-0123456789", time.Hour),
		nil, eventlog.Discard, slog.Default(),
	)
	return env
}

type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string]string
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: make(map[string]string)}
}

func (m *memoryBlobs) Put(_ context.Context, key, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = string(data)
	return "mem://" + key, nil
}

func (m *memoryBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryBlobs) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func march() ledger.MonthKey { return ledger.NewMonthKey(2024, time.March) }

// seedTenant creates "Green Park Residency" with rooms 101 and 102 and a
// tenant in 101 paying 12000 + 500.
func seedTenant(t *testing.T, env *testEnv) (*models.Building, []*models.Room, *CreatedTenant) {
	t.Helper()
	ctx := context.Background()

	b, err := env.property.CreateBuilding(ctx, BuildingInput{Name: "Green Park Residency"})
	if err != nil {
		t.Fatalf("CreateBuilding failed: %v", err)
	}
	var rooms []*models.Room
	for _, n := range []string{"101", "102"} {
		r, err := env.property.AddRoom(ctx, b.ID, n)
		if err != nil {
			t.Fatalf("AddRoom failed: %v", err)
		}
		rooms = append(rooms, r)
	}
	created, err := env.tenants.CreateTenant(ctx, TenantInput{
		BuildingID: b.ID,
		RoomID:     rooms[0].ID,
		TenantDetails: TenantDetails{
			Name:           "Asha",
			Rent:           d("12000"),
			Maintenance:    d("500"),
			AgreementStart: day("2024-01-01"),
		},
	})
	if err != nil {
		t.Fatalf("CreateTenant failed: %v", err)
	}
	return b, rooms, created
}
