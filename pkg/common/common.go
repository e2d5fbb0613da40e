package common

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cast"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 returns a time ordered unique id.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		node, err := snowflake.NewNode(1)
		if err != nil {
			panic(err)
		}
		snowflakeNode = node
	})
	return snowflakeNode.Generate().Int64()
}

// ParseID converts a JSON id (number, json.Number or numeric string) to
// int64. Only positive integers are accepted.
func ParseID(v interface{}) (int64, bool) {
	var (
		id  int64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		id, err = t.Int64()
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case bool, nil:
		return 0, false
	case float64:
		if t != float64(int64(t)) {
			return 0, false
		}
		id = int64(t)
	default:
		id, err = cast.ToInt64E(v)
	}
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseIDs converts a list of JSON ids, skipping invalid entries and
// duplicates while keeping the original order.
func ParseIDs(values []interface{}) []int64 {
	ids := make([]int64, 0, len(values))
	seen := make(map[int64]struct{}, len(values))
	for _, v := range values {
		id, ok := ParseID(v)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// IsBlankOrPlaceholder reports whether a form value is empty or one of the
// placeholder strings browsers send for unset fields.
func IsBlankOrPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || v == "undefined" || v == "null"
}
