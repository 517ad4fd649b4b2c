package entity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document types as stored in the content repository.
const (
	DocTypeLead    = "lead"
	DocTypeReport  = "auditReport"
	DocTypeService = "service"
)

// ReportTTL is how long a generated report stays accessible.
const ReportTTL = 30 * 24 * time.Hour

// Reference is a link to another document in the content repository.
// Dereferencing is the repository's job, not ours.
type Reference struct {
	Type string `json:"_type"`
	Ref  string `json:"_ref"`
}

func NewReference(id string) *Reference {
	return &Reference{Type: "reference", Ref: id}
}

// Span and Block model the rich-text shape the content store expects.
// The narrative produced by the analysis provider is wrapped as a single
// normal-style block.
type Span struct {
	Type string `json:"_type"`
	Key  string `json:"_key"`
	Text string `json:"text"`
}

type Block struct {
	Type     string `json:"_type"`
	Key      string `json:"_key"`
	Style    string `json:"style"`
	Children []Span `json:"children"`
}

// TextBlocks wraps plain text into a one-block rich-text value.
func TextBlocks(text string) []Block {
	return []Block{
		{
			Type:  "block",
			Key:   uuid.New().String()[:8],
			Style: "normal",
			Children: []Span{
				{Type: "span", Key: uuid.New().String()[:8], Text: text},
			},
		},
	}
}

// RecommendedService is one entry of a report's recommendation list.
// Priority: 1 = high, 2 = medium, 3 = low.
type RecommendedService struct {
	Priority                 int        `json:"priority"`
	CustomProblemDescription string     `json:"customProblemDescription"`
	CustomImpactDescription  string     `json:"customImpactDescription"`
	CustomBenefits           []string   `json:"customBenefits"`
	Service                  *Reference `json:"service"`
}

// Report is the generated mini-audit deliverable. Created once, never
// deleted by the workflow; only view bookkeeping mutates it afterwards.
type Report struct {
	ID   string `json:"_id,omitempty"`
	Slug string `json:"reportId"`

	Title               string               `json:"reportTitle"`
	Summary             string               `json:"summary"`
	ContextAnalysis     []Block              `json:"contextAnalysis"`
	RecommendedServices []RecommendedService `json:"recommendedServices"`

	Lead *Reference `json:"lead,omitempty"`

	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	Views        int        `json:"views"`
	LastViewedAt *time.Time `json:"lastViewedAt,omitempty"`
}

// Expired reports whether the report is past its 30-day window.
func (r *Report) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// NewReportSlug builds the human-shareable url component, e.g.
// "aud-3f2a-9c10": 8 bytes of crypto randomness, hex encoded, first two
// 4-char groups. Collisions are not checked for.
func NewReportSlug() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate report slug: %w", err)
	}
	h := hex.EncodeToString(b)
	return fmt.Sprintf("aud-%s-%s", h[0:4], h[4:8]), nil
}
