package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"insurance-service/internal/models"

	"github.com/jmoiron/sqlx"
)

type ITariffRepository interface {
	InsertTariff(tariff models.Tariff) (int, error)
	GetTariffByKey(cargoType string, date time.Time) (*models.Tariff, error)
	UpdateTariffRate(cargoType string, date time.Time, newRate float64) (bool, error)
	DeleteTariff(cargoType string, date time.Time) (bool, error)
}

type TariffRepository struct {
	db *sqlx.DB
}

func NewTariffRepository(db *sqlx.DB) ITariffRepository {
	return &TariffRepository{
		db: db,
	}
}

// InsertTariff upserts on (cargo_type, date): the table enforces at most one
// row per composite key, and re-adding a key refreshes its rate.
func (r *TariffRepository) InsertTariff(tariff models.Tariff) (int, error) {
	query := `
		INSERT INTO tariffs (date, cargo_type, rate)
		VALUES ($1, $2, $3)
		ON CONFLICT (cargo_type, date) DO UPDATE SET rate = EXCLUDED.rate
		RETURNING id`

	var id int
	err := r.db.Get(&id, query, tariff.Date, tariff.CargoType, tariff.Rate)
	if err != nil {
		return 0, fmt.Errorf("failed to insert tariff: %w", err)
	}
	return id, nil
}

// GetTariffByKey returns (nil, nil) when no tariff matches the key, so callers
// can tell an absent row apart from a storage failure.
func (r *TariffRepository) GetTariffByKey(cargoType string, date time.Time) (*models.Tariff, error) {
	var tariff models.Tariff
	query := `
		SELECT id, date, cargo_type, rate FROM tariffs
		WHERE cargo_type = $1 AND date = $2`

	err := r.db.Get(&tariff, query, cargoType, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tariff: %w", err)
	}
	return &tariff, nil
}

func (r *TariffRepository) UpdateTariffRate(cargoType string, date time.Time, newRate float64) (bool, error) {
	query := `
		UPDATE tariffs SET rate = $1
		WHERE cargo_type = $2 AND date = $3`

	result, err := r.db.Exec(query, newRate, cargoType, date)
	if err != nil {
		return false, fmt.Errorf("failed to update tariff rate: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *TariffRepository) DeleteTariff(cargoType string, date time.Time) (bool, error) {
	query := `
		DELETE FROM tariffs
		WHERE cargo_type = $1 AND date = $2`

	result, err := r.db.Exec(query, cargoType, date)
	if err != nil {
		return false, fmt.Errorf("failed to delete tariff: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
