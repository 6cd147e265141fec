package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"delay-prediction-api/store"

	"github.com/gin-gonic/gin"
)

// Snapshot history page sizes.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// PaginationParams is a keyset cursor over (time, id), newest first.
type PaginationParams struct {
	Limit int
	After *store.SnapshotCursor
}

type CursorResponse struct {
	Data       interface{} `json:"data"`
	NextCursor string      `json:"nextCursor,omitempty"`
	HasMore    bool        `json:"hasMore"`
}

// ParsePagination reads ?limit and ?before. The cursor is "<RFC3339Nano>,<id>";
// a bare timestamp is accepted and matches on time alone. Unparseable values
// fall back to the first page at the default size.
func ParsePagination(c *gin.Context) PaginationParams {
	p := PaginationParams{Limit: DefaultLimit}

	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		p.Limit = min(l, MaxLimit)
	}
	if cur, ok := parseCursor(c.Query("before")); ok {
		p.After = &cur
	}
	return p
}

func parseCursor(raw string) (store.SnapshotCursor, bool) {
	ts, idPart, hasID := strings.Cut(raw, ",")
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return store.SnapshotCursor{}, false
	}
	cur := store.SnapshotCursor{CalculatedAt: t}
	if hasID {
		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil || id <= 0 {
			return store.SnapshotCursor{}, false
		}
		cur.ID = id
	}
	return cur, true
}

func formatCursor(at time.Time, id int64) string {
	return fmt.Sprintf("%s,%d", at.Format(time.RFC3339Nano), id)
}

// Page cuts rows fetched with limit+1 down to limit and sets the cursor to
// the key of the last row kept.
func Page[T any](rows []T, limit int, key func(T) (time.Time, int64)) CursorResponse {
	resp := CursorResponse{Data: rows}
	if len(rows) > limit {
		rows = rows[:limit]
		resp.Data = rows
		resp.HasMore = true
		if limit > 0 {
			resp.NextCursor = formatCursor(key(rows[limit-1]))
		}
	}
	return resp
}
