package processor

// Result is the structured analysis produced for one message.
type Result struct {
	ID       string
	Subject  string
	Sender   string
	Date     string
	Category string
	Priority string
	Summary  string

	// ActionItems is empty when the model reported none, whether it
	// omitted the section or answered with an explicit "None" bullet.
	ActionItems []string
}

// Defaults used when a section is missing from the model's reply or the
// inference call fails outright.
const (
	DefaultCategory = "Uncategorized"
	DefaultPriority = "Medium"

	// FailedSummary marks a message whose inference call failed; the
	// rest of the batch still runs.
	FailedSummary = "Processing failed"
)
