package organizer

// Status is the outcome of a single file or ledger record.
type Status string

const (
	StatusMoved    Status = "moved"
	StatusPlanned  Status = "planned"
	StatusRestored Status = "restored"
	StatusFailed   Status = "failed"
)

// FileOutcome is what happened to one file during organize.
type FileOutcome struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Category    string `json:"category"`
	Status      Status `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Err         error  `json:"-"`
}

// OrganizeResult aggregates an organize run or a dry-run plan.
type OrganizeResult struct {
	Directory string        `json:"directory"`
	DryRun    bool          `json:"dryRun"`
	Total     int           `json:"total"`
	Moved     int           `json:"moved"`
	Failed    int           `json:"failed"`
	Folders   []string      `json:"folders,omitempty"`
	Files     []FileOutcome `json:"files"`
}

// RestoreOutcome is what happened to one ledger record during undo.
type RestoreOutcome struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Status      Status `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Err         error  `json:"-"`
}

// UndoResult aggregates an undo run.
type UndoResult struct {
	Directory string           `json:"directory,omitempty"`
	Restored  int              `json:"restored"`
	Failed    int              `json:"failed"`
	Records   []RestoreOutcome `json:"records"`
	Cleanup   *CleanupResult   `json:"cleanup,omitempty"`
}

// CleanupResult lists the category folders removed, or that could not be removed.
type CleanupResult struct {
	Directory string   `json:"directory"`
	Removed   []string `json:"removed"`
	Failed    []string `json:"failed,omitempty"`
}

// Failures returns the outcomes that did not succeed.
func (r *OrganizeResult) Failures() []FileOutcome {
	var out []FileOutcome
	for _, f := range r.Files {
		if f.Status == StatusFailed {
			out = append(out, f)
		}
	}
	return out
}
