package dosing

import (
	"time"
)

// Engine decides whether proposed medications, schedules and dose logs are
// legal. It is a pure decision layer: it reads related data through the
// interfaces it is handed and never writes. Persistence happens in the
// calling service only after the engine approves the record.
//
// Calendar dates ("doses taken today") are derived in a single configured
// location so the daily-limit window does not drift with the server's
// ambient timezone.
type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{loc: loc}
}

// Location returns the timezone used for same-calendar-date checks.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// day truncates t to its calendar date in the engine's location.
func (e *Engine) day(t time.Time) time.Time {
	t = t.In(e.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, e.loc)
}
