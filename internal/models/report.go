package models

import "time"

// MorningCallReport is the generated narrative report for one snapshot.
// Fallback is true when the text-generation call failed and the canned
// body was used instead — the report is still renderable either way.
type MorningCallReport struct {
	GeneratedAt time.Time `json:"generated_at"`
	Subject     string    `json:"subject"`
	Narrative   string    `json:"narrative"` // AI (or fallback) analysis block, HTML fragment
	HTMLBody    string    `json:"html_body"` // full email-ready document
	Fallback    bool      `json:"fallback"`
}
