// Package store persists astronaut wellness documents.
//
// Each astronaut owns a single flat document (tasks, symptom logs, diary
// entries, check-ins, family messages, ground-crew uploads). Two
// implementations exist: MemStore for tests and single-node dev setups, and
// PostgresStore for deployments with a database.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the named astronaut, or an entry within their
// document, does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrExists is returned by Create when the astronaut already exists.
var ErrExists = errors.New("store: already exists")

// Store provides operations over astronaut wellness documents.
// Implementations must be safe for concurrent use. Entry IDs left empty by
// the caller are assigned by the store.
type Store interface {
	// Create inserts a new astronaut document. Returns ErrExists if the name
	// is taken.
	Create(ctx context.Context, a *Astronaut) error

	// Get retrieves the full document for one astronaut.
	Get(ctx context.Context, name string) (*Astronaut, error)

	// List returns all astronaut documents, ordered by name.
	List(ctx context.Context) ([]Astronaut, error)

	// SetPhoto replaces the astronaut's profile photo data URL.
	SetPhoto(ctx context.Context, name string, photoURL string) error

	// AddSymptomLog appends a symptom entry and returns it with its ID set.
	AddSymptomLog(ctx context.Context, name string, l SymptomLog) (SymptomLog, error)

	// AttachSymptomMedia sets the photo or video data URL on an existing
	// symptom log. mediaType must be "photo" or "video".
	AttachSymptomMedia(ctx context.Context, name, logID, mediaType, dataURL string) error

	// AddCaptainLog appends a diary entry and returns it with its ID set.
	AddCaptainLog(ctx context.Context, name string, l CaptainLog) (CaptainLog, error)

	// UpsertCheckIn records the daily check-in, replacing any existing entry
	// for the same date.
	UpsertCheckIn(ctx context.Context, name string, c DailyCheckIn) error

	// ReplaceTasks replaces the whole mission task list.
	ReplaceTasks(ctx context.Context, name string, tasks []MissionTask) error

	// AddTask appends a mission task, assigning the next numeric ID, and
	// returns the stored task.
	AddTask(ctx context.Context, name string, t MissionTask) (MissionTask, error)

	// AddEarthlinkMessage appends a family message and returns it with its
	// ID set.
	AddEarthlinkMessage(ctx context.Context, name string, m EarthlinkMessage) (EarthlinkMessage, error)

	// MarkEarthlinkViewed flags a family message as viewed.
	MarkEarthlinkViewed(ctx context.Context, name, messageID string) error

	// AddDoctorAdvice appends ground-crew medical advice.
	AddDoctorAdvice(ctx context.Context, name string, d DoctorAdvice) (DoctorAdvice, error)

	// AddProcedure appends a mission procedure.
	AddProcedure(ctx context.Context, name string, p MissionProcedure) (MissionProcedure, error)

	// AddMassProtocol appends an exercise protocol.
	AddMassProtocol(ctx context.Context, name string, p MassProtocol) (MassProtocol, error)
}
