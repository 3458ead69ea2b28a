package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProgressRecord-specific validation errors
var (
	ErrProgressUserIDEmpty = errors.New("progress record user ID cannot be empty")
	ErrProgressItemIDEmpty = errors.New("progress record item ID cannot be empty")
	ErrProgressHashEmpty   = errors.New("progress record content hash cannot be empty")
	ErrProgressNegative    = errors.New("progress counters cannot be negative")
	ErrInvalidEaseFactor   = errors.New("ease factor must be greater than 1.0")
)

// defaultEaseFactor is the SM-2 starting ease for unreviewed items.
const defaultEaseFactor = 2.5

// ProgressRecord tracks a user's learning statistics for one item, stamped
// with the content hash of the item at recording time.
//
// A record is only meaningful in the context of the hash it carries: if the
// item's content changes, the old record is stale and must not be presented
// as current without re-validation against the new hash. This binding is
// what lets forks carry progress forward safely: a copy only inherits
// records whose hash still matches the source item's current content.
type ProgressRecord struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	ItemID       uuid.UUID `json:"item_id"`
	ContentHash  string    `json:"content_hash"`
	Attempts     int       `json:"attempts"`
	CorrectCount int       `json:"correct_count"`
	LastCorrect  bool      `json:"last_correct"`
	Strength     float64   `json:"strength"`

	// Spaced-repetition scheduling state, migrated across forks under the
	// same same-hash rule as the counters.
	IntervalDays int       `json:"interval_days"`
	EaseFactor   float64   `json:"ease_factor"`
	NextReviewAt time.Time `json:"next_review_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProgressRecord creates a fresh record for the given user and item,
// bound to the given content hash, with scheduling defaults that make the
// item immediately reviewable.
func NewProgressRecord(userID, itemID uuid.UUID, contentHash string) (*ProgressRecord, error) {
	now := time.Now().UTC()
	record := &ProgressRecord{
		ID:           uuid.New(),
		UserID:       userID,
		ItemID:       itemID,
		ContentHash:  contentHash,
		EaseFactor:   defaultEaseFactor,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// CopyForItem creates the fork-side copy of a progress record: a new record
// under the given item carrying forward all counters and scheduling state.
// Progress only ever copies forward from source to fork, never the reverse.
func (r *ProgressRecord) CopyForItem(itemID uuid.UUID) (*ProgressRecord, error) {
	now := time.Now().UTC()
	record := &ProgressRecord{
		ID:           uuid.New(),
		UserID:       r.UserID,
		ItemID:       itemID,
		ContentHash:  r.ContentHash,
		Attempts:     r.Attempts,
		CorrectCount: r.CorrectCount,
		LastCorrect:  r.LastCorrect,
		Strength:     r.Strength,
		IntervalDays: r.IntervalDays,
		EaseFactor:   r.EaseFactor,
		NextReviewAt: r.NextReviewAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the ProgressRecord has valid data.
func (r *ProgressRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrProgressUserIDEmpty
	}

	if r.ItemID == uuid.Nil {
		return ErrProgressItemIDEmpty
	}

	if r.ContentHash == "" {
		return ErrProgressHashEmpty
	}

	if r.Attempts < 0 || r.CorrectCount < 0 || r.IntervalDays < 0 {
		return ErrProgressNegative
	}

	if r.EaseFactor <= 1.0 {
		return ErrInvalidEaseFactor
	}

	return nil
}

// RecordAttempt folds one study attempt into the record and refreshes the
// derived strength score. Scheduling math beyond the strength ratio lives
// with the SRS collaborator, not here.
func (r *ProgressRecord) RecordAttempt(correct bool) {
	r.Attempts++
	if correct {
		r.CorrectCount++
	}
	r.LastCorrect = correct
	r.Strength = float64(r.CorrectCount) / float64(r.Attempts)
	r.UpdatedAt = time.Now().UTC()
}

// RebindHash re-stamps the record against new content, discarding counters
// that were earned against the old content. Stale progress is superseded,
// never silently carried across a content change.
func (r *ProgressRecord) RebindHash(contentHash string) {
	r.ContentHash = contentHash
	r.Attempts = 0
	r.CorrectCount = 0
	r.LastCorrect = false
	r.Strength = 0
	r.IntervalDays = 0
	r.EaseFactor = defaultEaseFactor
	r.NextReviewAt = time.Now().UTC()
	r.UpdatedAt = time.Now().UTC()
}

// MatchesHash reports whether the record was stamped against the given
// content hash, i.e. whether it is still current for that content.
func (r *ProgressRecord) MatchesHash(contentHash string) bool {
	return r.ContentHash == contentHash
}
