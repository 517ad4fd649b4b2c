package entity

// Service is a catalog entry the analysis provider picks from. The
// catalog is owned by the marketing team in the content store; this
// workflow only reads it.
type Service struct {
	ID       string `json:"_id,omitempty"`
	Name     string `json:"name"`
	Summary  string `json:"summary,omitempty"`
	Category string `json:"category,omitempty"`
}
