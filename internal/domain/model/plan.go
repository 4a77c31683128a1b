package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the fixed month length used for access windows.
const DaysPerMonth = 30

// Plan is an immutable catalog entry.
type Plan struct {
	ID             string
	DurationMonths int
	Price          decimal.Decimal
}

// AccessWindow returns how long access lasts for the given number of months.
func AccessWindow(months int) time.Duration {
	return time.Duration(months) * DaysPerMonth * 24 * time.Hour
}
