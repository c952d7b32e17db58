package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// cursorTimeFormat keeps nanosecond precision so decoded cursors reproduce
// the exact timestamp the keyset comparison was built from.
const cursorTimeFormat = time.RFC3339Nano

const fieldSeparator = "|"

// EncodeCursor builds an opaque keyset-pagination token from a record's
// creation time and id. The id breaks ties between rows created in the same
// nanosecond, so page boundaries stay stable.
func EncodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.Format(cursorTimeFormat) + fieldSeparator + id
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (time.Time, string, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	timePart, id, found := strings.Cut(string(decoded), fieldSeparator)
	if !found {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (missing separator)")
	}

	createdAt, err := time.Parse(cursorTimeFormat, timePart)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}

	return createdAt, id, nil
}

// EncodeMultiFieldToken builds a token from arbitrary string fields, for
// cursors that are not (time, id) pairs. The audit trail paginates on its
// sequence number through this.
func EncodeMultiFieldToken(fields ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(fields, fieldSeparator)))
}

// DecodeMultiFieldToken splits a token back into its component fields.
func DecodeMultiFieldToken(token string) ([]string, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decoded), fieldSeparator), nil
}
