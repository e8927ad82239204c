// Package wishlog records every adjudicated wish so a game night can be
// replayed or inspected afterwards. The default store is in-memory; a
// Postgres-backed store is available for installations that want the log to
// survive restarts.
package wishlog

import (
	"context"
	"time"
)

// Entry is one adjudicated wish.
type Entry struct {
	// Object is the catalog identifier that was spawned.
	Object string `json:"object"`

	// Door is the 1-based door the wish was judged against.
	Door int `json:"door"`

	// Transcript is what the speech recogniser heard.
	Transcript string `json:"transcript"`

	// Granted reports whether the door opened.
	Granted bool `json:"granted"`

	// Time is when the wish was adjudicated.
	Time time.Time `json:"time"`
}

// Store persists adjudicated wishes in order.
type Store interface {
	// Append records one wish.
	Append(ctx context.Context, e Entry) error

	// List returns all recorded wishes, oldest first.
	List(ctx context.Context) ([]Entry, error)

	// Clear discards the log. Called when the run is reset.
	Clear(ctx context.Context) error
}
