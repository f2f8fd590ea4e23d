package common

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// NextID returns one greater than the largest id in ids. Missing or
// non-numeric ids count as 0, so an empty input yields 1.
//
// NextID does not reserve anything: callers must hold the collection's
// write lock between computing the id and persisting the record.
func NextID(ids ...interface{}) int64 {
	var max int64
	for _, id := range ids {
		if n := ParseID(id); n > max {
			max = n
		}
	}
	return max + 1
}

// ParseID reads an integer id from a loosely typed value. Strings are parsed
// in base 10; anything unparsable yields 0.
func ParseID(v interface{}) int64 {
	switch val := v.(type) {
	case nil:
		return 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		n, err := cast.ToInt64E(val)
		if err != nil {
			return 0
		}
		return n
	}
}
