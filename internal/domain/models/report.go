package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportType classifies user feedback about an analyzed URL
type ReportType string

const (
	ReportFalsePositive   ReportType = "false_positive"
	ReportFalseNegative   ReportType = "false_negative"
	ReportConfirmPhishing ReportType = "confirm_phishing"
	ReportConfirmLegit    ReportType = "confirm_legitimate"
)

// ValidReportType reports whether t is one of the closed report-type set
func ValidReportType(t ReportType) bool {
	switch t {
	case ReportFalsePositive, ReportFalseNegative, ReportConfirmPhishing, ReportConfirmLegit:
		return true
	}
	return false
}

// AssertsPhishing reports the label a feedback type implies for the URL
func (t ReportType) AssertsPhishing() bool {
	return t == ReportFalseNegative || t == ReportConfirmPhishing
}

// URLReport is a permanent user-submitted feedback record. The URL may
// not exist in the registry yet, so URLID is nullable. Never mutated
// after creation.
type URLReport struct {
	ID            uuid.UUID  `json:"id"`
	URL           string     `json:"url"`
	URLID         *uuid.UUID `json:"url_id,omitempty"`
	ReportType    ReportType `json:"report_type"`
	Comments      string     `json:"comments,omitempty"`
	ReporterEmail string     `json:"reporter_email,omitempty"`
	Source        string     `json:"source,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// CreateReportRequest is the body of POST /url/report
type CreateReportRequest struct {
	URL           string `json:"url"`
	ReportType    string `json:"reportType"`
	Comments      string `json:"comments,omitempty"`
	ReporterEmail string `json:"reporterEmail,omitempty"`
	Source        string `json:"source,omitempty"`
}
