// Package pagination implements keyset paging for the order history feed.
// Offset paging drifts whenever a checkout commits between two page fetches,
// so the listing endpoints hand out an opaque cursor anchored at the last row
// of the previous page instead.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size served when the client does not ask for one.
	DefaultLimit = 25
	// MaxLimit caps a single page regardless of the requested limit.
	MaxLimit = 100

	cursorSeparator = "|"
)

// Params carries the paging inputs taken off the request query string.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins a page boundary to the (created_at, id) sort key of order
// history. The id breaks ties between orders committed in the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps the requested limit into [1, MaxLimit], substituting
// DefaultLimit when the client sent nothing usable.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer adds one row past the page size. Repositories fetch the
// extra row to learn whether a next page exists without a second query.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes the page boundary into the opaque token handed to
// clients. Timestamps are normalized to UTC so the token round-trips the same
// regardless of the server's zone.
func EncodeCursor(cursor Cursor) string {
	token := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID.String()
	return base64.StdEncoding.EncodeToString([]byte(token))
}

// ParseCursor decodes a client-supplied token back into a page boundary. An
// empty token means the first page and yields a nil cursor. Tampered or
// truncated tokens fail parsing and surface as a validation error upstream.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	rawTime, rawID, found := strings.Cut(string(decoded), cursorSeparator)
	if !found {
		return nil, fmt.Errorf("malformed cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, rawTime)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
