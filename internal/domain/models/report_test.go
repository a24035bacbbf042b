package models

import "testing"

func TestValidReportType(t *testing.T) {
	valid := []ReportType{
		ReportFalsePositive,
		ReportFalseNegative,
		ReportConfirmPhishing,
		ReportConfirmLegit,
	}
	for _, rt := range valid {
		if !ValidReportType(rt) {
			t.Errorf("ValidReportType(%s) = false, want true", rt)
		}
	}

	for _, rt := range []ReportType{"", "spam", "FALSE_POSITIVE", "confirm"} {
		if ValidReportType(rt) {
			t.Errorf("ValidReportType(%q) = true, want false", rt)
		}
	}
}

func TestAssertsPhishing(t *testing.T) {
	tests := []struct {
		reportType ReportType
		want       bool
	}{
		{ReportFalseNegative, true},
		{ReportConfirmPhishing, true},
		{ReportFalsePositive, false},
		{ReportConfirmLegit, false},
	}

	for _, tt := range tests {
		if got := tt.reportType.AssertsPhishing(); got != tt.want {
			t.Errorf("%s.AssertsPhishing() = %v, want %v", tt.reportType, got, tt.want)
		}
	}
}
