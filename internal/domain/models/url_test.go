package models

import "testing"

func TestTierSubsumes(t *testing.T) {
	tests := []struct {
		stored    AnalysisTier
		requested AnalysisTier
		want      bool
	}{
		{TierDeep, TierDeep, true},
		{TierDeep, TierStandard, true},
		{TierStandard, TierStandard, true},
		{TierStandard, TierDeep, false},
		{TierCached, TierStandard, false},
		{TierCached, TierDeep, false},
	}

	for _, tt := range tests {
		if got := tt.stored.Subsumes(tt.requested); got != tt.want {
			t.Errorf("%s.Subsumes(%s) = %v, want %v", tt.stored, tt.requested, got, tt.want)
		}
	}
}
