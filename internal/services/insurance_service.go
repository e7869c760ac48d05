package services

import (
	"fmt"
	"math"
	"time"

	"insurance-service/internal/models"
	"insurance-service/internal/repository"
)

// ValidationError reports the bulk-add element (or update parameter) that
// failed validation. Inserts committed before the bad element stay committed.
type ValidationError struct {
	Date      string
	CargoType string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.CargoType != "" {
		return fmt.Sprintf("invalid tariff (date %q, cargo_type %q): %s", e.Date, e.CargoType, e.Reason)
	}
	return fmt.Sprintf("invalid tariff (date %q): %s", e.Date, e.Reason)
}

type IInsuranceService interface {
	AddTariffs(groups models.BulkTariffRequest) error
	DeleteTariff(cargoType string, date time.Time) (bool, error)
	UpdateTariffRate(cargoType string, date time.Time, newRate float64) (bool, error)
	CalculateInsurance(cargoType string, date time.Time, declaredPrice float64) (float64, bool, error)
}

type InsuranceService struct {
	tariffRepo repository.ITariffRepository
	costRepo   repository.IInsuranceCostRepository
}

func NewInsuranceService(tariffRepo repository.ITariffRepository, costRepo repository.IInsuranceCostRepository) IInsuranceService {
	return &InsuranceService{
		tariffRepo: tariffRepo,
		costRepo:   costRepo,
	}
}

// AddTariffs inserts every (date, cargo_type, rate) triple of the request.
// The batch is not transactional: the first invalid element or storage
// failure aborts the call and earlier inserts are not rolled back.
func (s *InsuranceService) AddTariffs(groups models.BulkTariffRequest) error {
	for dateStr, rates := range groups {
		date, err := models.ParseDate(dateStr)
		if err != nil {
			return &ValidationError{Date: dateStr, Reason: err.Error()}
		}

		for _, input := range rates {
			if input.CargoType == "" {
				return &ValidationError{Date: dateStr, CargoType: input.CargoType, Reason: "cargo_type must not be empty"}
			}
			if err := validateRate(input.Rate); err != nil {
				return &ValidationError{Date: dateStr, CargoType: input.CargoType, Reason: err.Error()}
			}

			tariff := models.Tariff{
				Date:      date,
				CargoType: input.CargoType,
				Rate:      input.Rate,
			}
			if _, err := s.tariffRepo.InsertTariff(tariff); err != nil {
				return fmt.Errorf("failed to add tariff for %s/%s: %w", input.CargoType, dateStr, err)
			}
		}
	}
	return nil
}

// DeleteTariff removes the tariff for the key and reports whether one
// matched. A missing key is a normal outcome, not an error.
func (s *InsuranceService) DeleteTariff(cargoType string, date time.Time) (bool, error) {
	return s.tariffRepo.DeleteTariff(cargoType, models.NormalizeDate(date))
}

// UpdateTariffRate validates the new rate before it reaches storage, then
// follows the same matched/not-matched convention as DeleteTariff.
func (s *InsuranceService) UpdateTariffRate(cargoType string, date time.Time, newRate float64) (bool, error) {
	if err := validateRate(newRate); err != nil {
		return false, &ValidationError{Date: date.Format(models.DateLayout), CargoType: cargoType, Reason: err.Error()}
	}
	return s.tariffRepo.UpdateTariffRate(cargoType, models.NormalizeDate(date), newRate)
}

// CalculateInsurance looks up the tariff for the key and records
// declaredPrice * rate in the ledger. Returns found=false when no tariff
// matches. The lookup and the append are two independent storage calls; a
// concurrent delete or update between them still yields a cost record
// computed from the rate read at lookup time.
func (s *InsuranceService) CalculateInsurance(cargoType string, date time.Time, declaredPrice float64) (float64, bool, error) {
	tariff, err := s.tariffRepo.GetTariffByKey(cargoType, models.NormalizeDate(date))
	if err != nil {
		return 0, false, err
	}
	if tariff == nil {
		return 0, false, nil
	}

	insuranceCost := declaredPrice * tariff.Rate
	record := models.InsuranceCost{
		TariffID:      tariff.ID,
		DeclaredPrice: declaredPrice,
		InsuranceCost: insuranceCost,
	}
	if _, err := s.costRepo.AddInsuranceCost(record); err != nil {
		return 0, false, err
	}

	return insuranceCost, true, nil
}

func validateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("rate must be a finite number")
	}
	if rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	return nil
}
