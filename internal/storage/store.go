package storage

import (
	"context"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusAborted     = "aborted"
	StatusInterrupted = "interrupted"
)

// ErrNotFound is returned when a mission does not exist
var ErrNotFound = errors.New("not found")

// Mission is one recorded run of the mission controller
type Mission struct {
	ID         string
	StartTime  time.Time
	FinishTime *time.Time
	Status     string
	Config     *string // Mission plan as JSON
}

// Site is the last committed outcome of one waypoint
type Site struct {
	MissionID  string
	Index      int
	X, Y       float64
	Color      string
	Ambiguous  bool
	Marker     string
	Diagnosis  string
	Note       string
	Symbol     string
	SymbolSeen bool
	Revisited  bool
	UpdatedAt  time.Time
}

// Store persists missions and the outcome of every inspected site. Writes
// are atomic per call.
type Store interface {
	// CreateMission records the start of a mission. config is optional and
	// can be a string, []byte or a JSON serializable value.
	CreateMission(ctx context.Context, id string, config any) error

	// FinishMission stamps the finish time and the final status
	FinishMission(ctx context.Context, id, status string) error

	// SaveSite inserts or replaces the outcome of a site
	SaveSite(ctx context.Context, site *Site) error

	// Mission returns a mission by ID or ErrNotFound
	Mission(ctx context.Context, id string) (*Mission, error)

	// Missions returns all missions ordered by start time
	Missions(ctx context.Context) ([]*Mission, error)

	// Sites returns the sites of a mission ordered by waypoint index
	Sites(ctx context.Context, missionID string) ([]*Site, error)

	// Close releases all database connections. It is safe to call Close
	// multiple times.
	Close() error
}
