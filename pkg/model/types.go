package model

// Batch sources identify who produced a BatchNotification.
const (
	SourceSubmission = "submission"
	SourceMatch      = "match"
)

// FieldNotification reports the validity of a single concrete field.
type FieldNotification struct {
	FieldID  string `json:"fieldId"`
	ErrorMsg string `json:"errorMsg"`
}

// Valid reports whether the notification clears the field.
func (n FieldNotification) Valid() bool {
	return n.ErrorMsg == ""
}

// BatchNotification carries a set of field messages produced together, such as
// the submission-time summary or the fields flagged by a duplicate check.
type BatchNotification struct {
	Source  string              `json:"source"`
	Fields  []FieldNotification `json:"fields,omitempty"`
	Warning bool                `json:"warning"`
	Title   string              `json:"title,omitempty"`
	// Reset signals that every notification previously published by Source
	// must be discarded.
	Reset bool `json:"reset,omitempty"`
}

// MatchRecord is a single duplicate-client candidate returned by the backend.
type MatchRecord struct {
	Field        string `json:"field"`
	Match        string `json:"match"`
	Fuzzy        bool   `json:"fuzzy"`
	PartialMatch bool   `json:"partialMatch"`
}

// MatchResponse wraps a duplicate-check response. A nil Matches slice is an
// explicit reset, not just "no new matches".
type MatchResponse struct {
	ID      string        `json:"id"`
	Matches []MatchRecord `json:"matches"`
}

// MatchResult is the field-level expansion of a match batch.
type MatchResult struct {
	ErrorFields   []FieldNotification `json:"errorFields,omitempty"`
	WarningFields []FieldNotification `json:"warningFields,omitempty"`
	Title         string              `json:"title,omitempty"`
}

// Empty reports whether the result flags no fields.
func (r MatchResult) Empty() bool {
	return len(r.ErrorFields) == 0 && len(r.WarningFields) == 0
}

// Blocking reports whether the result prevents submission.
func (r MatchResult) Blocking() bool {
	return len(r.ErrorFields) > 0
}

// ModalRequest asks a confirmation dialog to open.
type ModalRequest struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}
