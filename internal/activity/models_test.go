package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		action string
		want   Kind
	}{
		{"view", KindView},
		{"create", KindCreate},
		{"update", KindUpdate},
		{"delete", KindDelete},
		{"export", KindExport},
		{"login", KindLogin},
		{"status_change", KindStatusChange},
		{"bulk_import", KindOther},
		{"", KindOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, KindOf(tc.action), "action %q", tc.action)
	}
}

func TestNormalizeAction(t *testing.T) {
	assert.Equal(t, "view", NormalizeAction("  View "))
	assert.Equal(t, "status_change", NormalizeAction("STATUS_CHANGE"))
	assert.Equal(t, "", NormalizeAction("   "))
	// Ad hoc literals survive normalization intact.
	assert.Equal(t, "archived candidate", NormalizeAction("Archived Candidate"))
}

func TestDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	// 01:30 UTC+3 is 22:30 the previous day in UTC; days partition on UTC.
	ts := time.Date(2024, 1, 16, 1, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), DayOf(ts))

	ts = time.Date(2024, 1, 15, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), DayOf(ts))
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDay("15/01/2024")
	assert.Error(t, err)
}
