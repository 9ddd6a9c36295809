// Package model defines the data structures used throughout the application.
package model

import "time"

// Meal is one recorded eating event.
//
// OwnerID is the caller's identity token. It is set once at creation and is
// the scoping key for every read and write: a meal is only ever visible to
// the token that created it.
//
// DateTime is the event time supplied by the client, already normalized by
// FormatDateTime. It is independent of CreatedAt, so a meal may be
// backfilled into the past.
type Meal struct {
	ID          string    `json:"id"          db:"id"`
	OwnerID     string    `json:"user_id"     db:"user_id"`
	Name        string    `json:"name"        db:"name"`
	Description string    `json:"description" db:"description"`
	DateTime    string    `json:"date_time"   db:"date_time"`
	OnDiet      bool      `json:"on_diet"     db:"on_diet"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
}

// Metrics summarises a caller's meal history.
type Metrics struct {
	RecordedMeals int `json:"recorded_meals"`
	OnDietMeals   int `json:"on_diet_meals"`
	OffDietMeals  int `json:"off_diet_meals"`
	BestSequence  int `json:"best_sequence"`
}
