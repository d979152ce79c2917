package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	types "github.com/fatflowers/membership/pkg/types"
)

func TestPlan_TableName(t *testing.T) {
	var p Plan
	require.Equal(t, "plan", p.TableName())
}

func TestPlan_IsActive(t *testing.T) {
	require.False(t, (*Plan)(nil).IsActive())
	require.True(t, (&Plan{Status: types.PlanStatusActive}).IsActive())
	require.False(t, (&Plan{Status: types.PlanStatusInactive}).IsActive())
}

func TestPlan_ExpirationFrom(t *testing.T) {
	start := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	days := 30
	months := 3
	years := 1

	tests := []struct {
		name string
		plan *Plan
		want *time.Time
	}{
		{
			name: "forever plan has no expiration",
			plan: &Plan{DurationType: types.DurationForever},
			want: nil,
		},
		{
			name: "missing duration value has no expiration",
			plan: &Plan{DurationType: types.DurationDays},
			want: nil,
		},
		{
			name: "days",
			plan: &Plan{DurationType: types.DurationDays, DurationValue: &days},
			want: timePtr(time.Date(2024, 4, 14, 12, 0, 0, 0, time.UTC)),
		},
		{
			name: "months",
			plan: &Plan{DurationType: types.DurationMonths, DurationValue: &months},
			want: timePtr(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)),
		},
		{
			name: "years",
			plan: &Plan{DurationType: types.DurationYears, DurationValue: &years},
			want: timePtr(time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.plan.ExpirationFrom(start)
			if tc.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.True(t, tc.want.Equal(*got))
		})
	}
}

func TestPlan_ExpirationFrom_MonthOverflowNormalizes(t *testing.T) {
	// Jan 31 + 1 month lands in March via AddDate normalization.
	one := 1
	p := &Plan{DurationType: types.DurationMonths, DurationValue: &one}

	got := p.ExpirationFrom(time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, got)
	require.Equal(t, time.March, got.Month())
	require.Equal(t, 3, got.Day())

	// leap year: Feb has 29 days, so the spill is one day shorter
	got = p.ExpirationFrom(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NotNil(t, got)
	require.Equal(t, time.March, got.Month())
	require.Equal(t, 2, got.Day())
}

func timePtr(t time.Time) *time.Time { return &t }
