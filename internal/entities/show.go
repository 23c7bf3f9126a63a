package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SaleStatus string

const (
	SaleStatusUpcoming SaleStatus = "UPCOMING"
	SaleStatusOnSale   SaleStatus = "ON_SALE"
	SaleStatusSoldOut  SaleStatus = "SOLD_OUT"
	SaleStatusEnded    SaleStatus = "ENDED"
)

// saleStatusOrder fixes the monotonic lifecycle
// UPCOMING -> ON_SALE -> SOLD_OUT -> ENDED.
var saleStatusOrder = map[SaleStatus]int{
	SaleStatusUpcoming: 0,
	SaleStatusOnSale:   1,
	SaleStatusSoldOut:  2,
	SaleStatusEnded:    3,
}

func (s SaleStatus) Valid() bool {
	_, ok := saleStatusOrder[s]
	return ok
}

// CanTransitionTo permits only forward moves along the lifecycle.
func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	from, ok := saleStatusOrder[s]
	if !ok {
		return false
	}
	to, ok := saleStatusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// Show is a scheduled performance. Date carries the calendar day and
// Time the local start time as "HH:MM" (seconds tolerated); the split
// matches how operators enter schedules.
type Show struct {
	ID               uuid.UUID  `db:"id"`
	Title            string     `db:"title"`
	Venue            string     `db:"venue"`
	Date             time.Time  `db:"show_date"`
	Time             string     `db:"show_time"`
	SaleStatus       SaleStatus `db:"sale_status"`
	AutoUpdateStatus bool       `db:"auto_update_status"`
}

// Passed reports whether the show's scheduled start lies in the past:
// the date is before today, or it is today and the start time is
// before the current time of day.
func (s Show) Passed(now time.Time) bool {
	y, m, d := s.Date.Date()
	ny, nm, nd := now.Date()

	showDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	if showDay.Before(today) {
		return true
	}
	if showDay.After(today) {
		return false
	}

	startH, startM, err := parseClock(s.Time)
	if err != nil {
		return false
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	return startH*60+startM < nowMinutes
}

func parseClock(value string) (hour, minute int, err error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		t, perr := time.Parse(layout, value)
		if perr == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, fmt.Errorf("invalid clock value %q", value)
}
