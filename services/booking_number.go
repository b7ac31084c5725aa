package services

import (
	"fmt"
	"time"
)

// MaxBookingNumberAttempts bounds generation, counting both existence-check
// collisions and duplicate-key failures on insert.
const MaxBookingNumberAttempts = 10

// FormatBookingNumber renders BK-YYYYMMDD-NNNNN.
func FormatBookingNumber(day time.Time, suffix int) string {
	return fmt.Sprintf("BK-%s-%05d", day.Format("20060102"), suffix)
}

func (p *Params) nextBookingNumber(day time.Time) string {
	return FormatBookingNumber(day, p.Rand.Intn(100000))
}
