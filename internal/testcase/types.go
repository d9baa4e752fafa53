package testcase

import (
	"time"
)

// Status is the lifecycle status of a test case
type Status string

const (
	// StatusDraft marks a test case under construction
	StatusDraft Status = "DRAFT"
	// StatusReadyForReview marks a test case waiting for review
	StatusReadyForReview Status = "READY_FOR_REVIEW"
	// StatusDisabled marks a test case that is never executed
	StatusDisabled Status = "DISABLED"
	// StatusFinal marks a reviewed test case
	StatusFinal Status = "FINAL"
)

// ParseStatus converts a status name, returning false for unknown names.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusDraft, StatusReadyForReview, StatusDisabled, StatusFinal:
		return st, true
	case "":
		return StatusDraft, true
	default:
		return "", false
	}
}

// MetaInfo holds authoring information about a test case
type MetaInfo struct {
	// Author is the name of the test author
	Author string `json:"author,omitempty"`
	// Status is the lifecycle status
	Status Status `json:"status"`
	// CreationDate when the test case was written
	CreationDate time.Time `json:"creation_date,omitempty"`
	// LastUpdatedBy names the last editor
	LastUpdatedBy string `json:"last_updated_by,omitempty"`
	// LastUpdatedOn when the test case was last changed
	LastUpdatedOn time.Time `json:"last_updated_on,omitempty"`
}

// Variable is a test case variable. Values may hold dynamic content that
// is resolved when the test case starts.
type Variable struct {
	Name  string
	Value string
}

// ActionResult records the outcome of a single executed action
type ActionResult struct {
	// Index is the position of the action in its chain, starting at 1
	Index int `json:"index"`
	// Name is the action name
	Name string `json:"name"`
	// Finally is true for actions of the finally chain
	Finally bool `json:"finally,omitempty"`
	// Duration of the action
	Duration time.Duration `json:"duration"`
	// Error message if the action failed
	Error string `json:"error,omitempty"`
}
