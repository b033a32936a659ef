package repository

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cursor is the position of the last reading returned in scan order
type Cursor struct {
	Start time.Time
	ID    int64
}

// Encode encodes the cursor to an opaque URL-safe string
func (c Cursor) Encode() string {
	encoded := fmt.Sprintf("%d.%d", c.Start.UnixNano(), c.ID)
	return base64.URLEncoding.EncodeToString([]byte(encoded))
}

// DecodeCursor decodes a string produced by Cursor.Encode
func DecodeCursor(encoded string) (Cursor, error) {
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid cursor format: %v", err)
	}

	parts := strings.SplitN(string(decoded), ".", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("invalid cursor format: %s", encoded)
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid timestamp in cursor: %v", err)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid id in cursor: %v", err)
	}

	return Cursor{Start: time.Unix(0, nanos).UTC(), ID: id}, nil
}
