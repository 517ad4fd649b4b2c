package entity

import (
	"time"
)

// Business lifecycle statuses. Set by sales tooling; the generation
// workflow only ever moves a lead to StatusQualified.
const (
	StatusNew         = "new"
	StatusQualified   = "qualified"
	StatusInContact   = "in_contact"
	StatusConverted   = "converted"
	StatusUnqualified = "unqualified"
	StatusInactive    = "inactive"
)

// Report-generation statuses persisted on the lead (ReportStatusInfo).
// ReportStatusPartial exists in the schema and the client UI but no
// workflow path sets it today.
const (
	ReportStatusQueued     = "queued"
	ReportStatusProcessing = "processing"
	ReportStatusCompleted  = "completed"
	ReportStatusPartial    = "partial"
	ReportStatusFailed     = "failed"
)

// ReportStatusInfo is the durable per-lead state machine of the async
// generation driver. Advisory only: the authoritative success signal is
// the Report back-reference on the lead.
type ReportStatusInfo struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updatedAt"`
	Attempts  int       `json:"attempts"`
}

// Lead is a prospect's submitted mini-audit profile.
type Lead struct {
	ID              string `json:"_id,omitempty"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Company         string `json:"companyName"`
	JobTitle        string `json:"jobTitle,omitempty"`
	CompanySize     string `json:"companySize,omitempty"`
	Challenge       string `json:"challenge,omitempty"`
	ImprovementGoal string `json:"improvementGoal,omitempty"`

	Status          string            `json:"status"`
	ReportStatus    *ReportStatusInfo `json:"reportStatus,omitempty"`
	ReportGenerated bool              `json:"reportGenerated"`

	// Report points at the generated report document. At most one report
	// should reference a lead; the driver enforces this via the
	// generation claim, not via a store-level uniqueness constraint.
	Report          *Reference `json:"report,omitempty"`
	GenerationClaim string     `json:"generationClaim,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

func NewLead(name, email, company, jobTitle, companySize, challenge, goal string) *Lead {
	return &Lead{
		Name:            name,
		Email:           email,
		Company:         company,
		JobTitle:        jobTitle,
		CompanySize:     companySize,
		Challenge:       challenge,
		ImprovementGoal: goal,
		Status:          StatusNew,
		ReportStatus: &ReportStatusInfo{
			Status:    ReportStatusQueued,
			Message:   "queued for generation",
			UpdatedAt: time.Now().UTC(),
		},
		CreatedAt: time.Now().UTC(),
	}
}

// HasReport reports whether generation already succeeded for this lead.
func (l *Lead) HasReport() bool {
	return l.Report != nil && l.Report.Ref != ""
}
