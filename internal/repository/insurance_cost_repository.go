package repository

import (
	"fmt"

	"insurance-service/internal/models"

	"github.com/jmoiron/sqlx"
)

type IInsuranceCostRepository interface {
	AddInsuranceCost(record models.InsuranceCost) (int, error)
}

// InsuranceCostRepository is append-only; computed costs are historical facts
// and are never updated or deleted here.
type InsuranceCostRepository struct {
	db *sqlx.DB
}

func NewInsuranceCostRepository(db *sqlx.DB) IInsuranceCostRepository {
	return &InsuranceCostRepository{
		db: db,
	}
}

func (r *InsuranceCostRepository) AddInsuranceCost(record models.InsuranceCost) (int, error) {
	query := `
		INSERT INTO insurance_costs (tariff_id, declared_price, insurance_cost)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id int
	err := r.db.Get(&id, query, record.TariffID, record.DeclaredPrice, record.InsuranceCost)
	if err != nil {
		return 0, fmt.Errorf("failed to add insurance cost: %w", err)
	}
	return id, nil
}
