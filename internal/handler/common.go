package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// parseID parses a positive uint64 path parameter. Zero and garbage both
// count as invalid.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// dedupeSeatIDs drops zero and repeated seat ids while preserving the
// first-seen order.
func dedupeSeatIDs(ids []uint64) []uint64 {
	unique := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	return unique
}
