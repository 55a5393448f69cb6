package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/klineprompt/internal/core"
)

// DateLayout is the normalized form of date columns.
const DateLayout = "2006-01-02"

// Fractional seconds are accepted after the seconds field even though the
// layouts do not spell them out.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	DateLayout,
	"2006/01/02 15:04:05",
	"2006/01/02",
	"20060102",
}

// NormalizeDate truncates a timestamp-like value to YYYY-MM-DD. nil stays nil.
func NormalizeDate(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return val.Format(DateLayout), nil
	case *time.Time:
		if val == nil {
			return nil, nil
		}
		return val.Format(DateLayout), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(DateLayout), nil
			}
		}
		return nil, core.WrapError(core.ErrSchema, fmt.Errorf("cannot parse %q as a date", val))
	default:
		return nil, core.WrapError(core.ErrSchema, fmt.Errorf("cannot use %T as a date", v))
	}
}
