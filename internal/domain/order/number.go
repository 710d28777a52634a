package order

import (
	"fmt"
	"time"
)

// NumberPrefix formats the date-scoped order number prefix, e.g.
// "SO-20260829". Suffixes are allocated per prefix by a NumberAllocator.
func NumberPrefix(t time.Time) string {
	return fmt.Sprintf("SO-%s", t.Format("20060102"))
}

// FormatNumber joins a prefix and a suffix into a full order number,
// e.g. "SO-20260829-00042"
func FormatNumber(prefix string, suffix int64) string {
	return fmt.Sprintf("%s-%05d", prefix, suffix)
}
