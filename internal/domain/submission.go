package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxNameLength matches the width of game_submissions.name.
const MaxNameLength = 100

// Submission is one persisted name. Rows are append-only.
type Submission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// NameCount is one group of the statistics query.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// StatsSnapshot is the aggregate view served by GET /stats.
// DatabaseError is only set on the fallback payload.
type StatsSnapshot struct {
	TotalPlayers  int         `json:"total_players"`
	UniqueNames   int         `json:"unique_names"`
	MostPopular   *string     `json:"most_popular"`
	NameData      []NameCount `json:"name_data"`
	DatabaseError string      `json:"database_error,omitempty"`
}

// DeliveryMetadata is what the broker tells us about one delivery.
type DeliveryMetadata struct {
	MessageID   string
	PublishedAt time.Time
	Attempt     int
}

// Normalize trims surrounding whitespace and title-cases every
// whitespace-delimited word: first letter upper, the rest lower.
// Internal whitespace is preserved. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(trimmed))

	wordStart := true
	for _, r := range trimmed {
		switch {
		case unicode.IsSpace(r):
			wordStart = true
		case wordStart:
			r = unicode.ToTitle(r)
			wordStart = false
		default:
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateName normalizes raw and rejects names that cannot be stored.
func ValidateName(raw string) (string, error) {
	name := Normalize(raw)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
