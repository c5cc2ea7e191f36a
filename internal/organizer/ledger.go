package organizer

// MoveRecord is one successful move made by an organize run.
type MoveRecord struct {
	Destination string `json:"destination"`
	Original    string `json:"original"`
}

// Ledger keeps the moves of the latest organize run, in move order.
// It is not safe for concurrent use; the Engine serializes access.
type Ledger struct {
	records []MoveRecord
}

// Append records a move.
func (l *Ledger) Append(r MoveRecord) {
	l.records = append(l.records, r)
}

// DrainAll returns every record and leaves the ledger empty.
func (l *Ledger) DrainAll() []MoveRecord {
	out := l.records
	l.records = nil
	return out
}

// Clear drops all records.
func (l *Ledger) Clear() {
	l.records = nil
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of the current records.
func (l *Ledger) Records() []MoveRecord {
	return append([]MoveRecord(nil), l.records...)
}
