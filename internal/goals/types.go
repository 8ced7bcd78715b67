package goals

// Goal is one entry of a user's ledger. The whole collection is persisted
// as a single JSON array in one row keyed by user_id.
type Goal struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	EndDateTask string  `json:"endDateTask"`
	DateDone    *string `json:"dateDone"`
	EmailSentAt *string `json:"emailSentAt,omitempty"`
}

// GoalInput is the caller-supplied shape of a new goal, before the server
// stamps id and createdAt.
type GoalInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	EndDateTask string `json:"endDateTask,omitempty"`
}
