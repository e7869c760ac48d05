package models

import (
	"fmt"
	"time"
)

// DateLayout is the date-only format used by bulk-add group keys.
const DateLayout = "2006-01-02"

// Tariff is a rate multiplier for one cargo category on one calendar day.
// At most one row exists per (cargo_type, date) pair.
type Tariff struct {
	ID        int       `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	CargoType string    `db:"cargo_type" json:"cargo_type"`
	Rate      float64   `db:"rate" json:"rate"`
}

// InsuranceCost is a computed insurance price, recorded once and never mutated.
// TariffID points at the tariff the rate was read from; the row is a historical
// fact even if that tariff is later changed or removed.
type InsuranceCost struct {
	ID            int     `db:"id" json:"id"`
	TariffID      int     `db:"tariff_id" json:"tariff_id"`
	DeclaredPrice float64 `db:"declared_price" json:"declared_price"`
	InsuranceCost float64 `db:"insurance_cost" json:"insurance_cost"`
}

// TariffRateInput is one element of a bulk-add date group.
type TariffRateInput struct {
	CargoType string  `json:"cargo_type"`
	Rate      float64 `json:"rate"`
}

// BulkTariffRequest maps a date string to the rates effective on that date.
type BulkTariffRequest map[string][]TariffRateInput

// NormalizeDate truncates t to midnight UTC. All dates are normalized before
// they reach storage, so caller-supplied timestamps and stored date-only
// values always compare exactly.
func NormalizeDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts a date-only string or an RFC3339 timestamp and returns
// the day it falls on, normalized to midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s or RFC3339", s, DateLayout)
	}
	return NormalizeDate(t), nil
}
