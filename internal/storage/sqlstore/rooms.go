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

// CreateRoom inserts a room. Room numbers are unique within a building.
func (s *Store) CreateRoom(ctx context.Context, r *models.Room) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO rooms (id, building_id, room_number, is_occupied, created_at)
		VALUES (?, ?, ?, ?, ?)`),
		r.ID, r.BuildingID, r.RoomNumber, r.IsOccupied, r.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert room", err)
	}
	return nil
}

const roomColumns = "id, building_id, room_number, is_occupied, created_at"

func scanRoom(row scanner) (*models.Room, error) {
	r := &models.Room{}
	if err := row.Scan(&r.ID, &r.BuildingID, &r.RoomNumber, &r.IsOccupied, &r.CreatedAt); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRoom retrieves a room by ID.
func (s *Store) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+roomColumns+" FROM rooms WHERE id = ?"), id)
	r, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return r, nil
}

// ListRooms returns the rooms of a building ordered by room number.
func (s *Store) ListRooms(ctx context.Context, buildingID string) ([]*models.Room, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+roomColumns+" FROM rooms WHERE building_id = ? ORDER BY room_number"), buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*models.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// SetRoomOccupied flips the occupancy flag of a room.
func (s *Store) SetRoomOccupied(ctx context.Context, id string, occupied bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		"UPDATE rooms SET is_occupied = ? WHERE id = ?"), occupied, id)
	if err != nil {
		return fmt.Errorf("failed to update room: %w", err)
	}
	return affected(res, "room", id)
}
