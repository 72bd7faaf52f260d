package reconciliation

// Outcome classifies how an event was handled. Transient failures are
// reported as errors instead.
type Outcome string

const (
	// OutcomeApplied means state changed.
	OutcomeApplied Outcome = "applied"
	// OutcomeSkipped means a precondition was missing; redelivery cannot help.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeDuplicate means the event had already been applied.
	OutcomeDuplicate Outcome = "duplicate"
)

type Result struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason,omitempty"`
}

func applied(reason string) Result   { return Result{Outcome: OutcomeApplied, Reason: reason} }
func skipped(reason string) Result   { return Result{Outcome: OutcomeSkipped, Reason: reason} }
func duplicate(reason string) Result { return Result{Outcome: OutcomeDuplicate, Reason: reason} }

// Ignore is the result for events the application does not act on.
func Ignore(reason string) Result { return skipped(reason) }
