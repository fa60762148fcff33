package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// CreateBuilding inserts a new building. The code is derived from the name
// when empty.
func (s *Store) CreateBuilding(ctx context.Context, b *models.Building) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().Unix()
	}
	if b.Code == "" {
		b.Code = models.BuildingCode(b.Name)
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO buildings (id, name, code, address, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		b.ID, b.Name, b.Code, b.Address, b.Description, b.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert building", err)
	}
	return nil
}

const buildingColumns = "id, name, code, address, description, created_at"

func scanBuilding(row scanner) (*models.Building, error) {
	b := &models.Building{}
	if err := row.Scan(&b.ID, &b.Name, &b.Code, &b.Address, &b.Description, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBuilding retrieves a building by ID.
func (s *Store) GetBuilding(ctx context.Context, id string) (*models.Building, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+buildingColumns+" FROM buildings WHERE id = ?"), id)
	b, err := scanBuilding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("building %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get building: %w", err)
	}
	return b, nil
}

// ListBuildings returns all buildings ordered by name.
func (s *Store) ListBuildings(ctx context.Context) ([]*models.Building, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+buildingColumns+" FROM buildings ORDER BY name, created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []*models.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate buildings: %w", err)
	}
	return buildings, nil
}
