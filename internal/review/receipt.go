package review

import "github.com/inklane/countersign/internal/workflows"

// Effect records the outcome of a non-critical side effect of an approval,
// such as rendering the visual stamp or sending the notification email.
// Effect failures never fail the approval; they are reported here so callers
// and telemetry can observe them.
type Effect struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Receipt is the result of a successful approval: the workflow in its new
// state plus the outcomes of any best-effort effects.
type Receipt struct {
	Workflow *workflows.Workflow `json:"workflow"`
	Effects  []Effect            `json:"effects,omitempty"`
}
