package matching

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formcheck/pkg/model"
	"github.com/goliatone/go-formcheck/pkg/notify"
)

// Option customises a Mapper.
type Option func(*Mapper)

// WithBus sets the bus that receives match-derived notifications.
func WithBus(bus *notify.Bus) Option {
	return func(m *Mapper) {
		m.bus = bus
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		m.logger = logger
	}
}

// WithMessages overrides the message templates. Empty fields keep the
// defaults.
func WithMessages(messages Messages) Option {
	return func(m *Mapper) {
		m.messages = messages
	}
}

// Mapper turns duplicate-check results into field notifications.
type Mapper struct {
	table    Table
	bus      *notify.Bus
	logger   *slog.Logger
	messages Messages
	compiled *compiledMessages

	mu      sync.Mutex
	emitted []string
}

// New constructs a Mapper for table. It fails when a message template does
// not compile.
func New(table Table, options ...Option) (*Mapper, error) {
	m := &Mapper{table: table}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	if m.table == nil {
		m.table = Table{}
	}
	if m.logger == nil {
		m.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	compiled, err := compileMessages(m.messages)
	if err != nil {
		return nil, err
	}
	m.compiled = compiled
	return m, nil
}

// Map expands matches into error and warning fields. It has no side effects.
//
// Non-fuzzy records produce blocking errors and fuzzy records produce
// warnings; PartialMatch only changes the wording. Each id appears at most
// once per severity, and a warning is dropped when the same id already
// carries an error. Records whose field is not in the table annotate the raw
// field with the generic message.
func (m *Mapper) Map(matches []model.MatchRecord) model.MatchResult {
	var result model.MatchResult
	errorIDs := make(map[string]struct{})
	warningIDs := make(map[string]struct{})

	for _, record := range matches {
		entry, targets, mapped := m.table.Expand(record.Field)
		if !mapped {
			m.logger.Debug("matching: unmapped match field", "field", record.Field)
			targets = []string{record.Field}
		}
		msg := m.message(record, entry, mapped)

		for _, id := range targets {
			if record.Fuzzy {
				if _, dup := warningIDs[id]; dup {
					continue
				}
				warningIDs[id] = struct{}{}
				result.WarningFields = append(result.WarningFields, model.FieldNotification{FieldID: id, ErrorMsg: msg})
				continue
			}
			if _, dup := errorIDs[id]; dup {
				continue
			}
			errorIDs[id] = struct{}{}
			result.ErrorFields = append(result.ErrorFields, model.FieldNotification{FieldID: id, ErrorMsg: msg})
		}
	}

	if len(errorIDs) > 0 && len(result.WarningFields) > 0 {
		kept := result.WarningFields[:0]
		for _, n := range result.WarningFields {
			if _, blocked := errorIDs[n.FieldID]; blocked {
				continue
			}
			kept = append(kept, n)
		}
		result.WarningFields = kept
		if len(kept) == 0 {
			result.WarningFields = nil
		}
	}

	switch {
	case len(result.ErrorFields) > 0:
		result.Title = m.compiled.errorTitle
	case len(result.WarningFields) > 0:
		result.Title = m.compiled.warningTitle
	}
	return result
}

func (m *Mapper) message(record model.MatchRecord, entry Entry, mapped bool) string {
	label := entry.Label
	if label == "" {
		label = record.Field
	}

	kind := kindUnmapped
	if mapped {
		switch {
		case record.Fuzzy && record.PartialMatch:
			kind = kindPartialWarning
		case record.Fuzzy:
			kind = kindWarning
		case record.PartialMatch:
			kind = kindPartialError
		default:
			kind = kindError
		}
	}

	msg, err := m.compiled.render(kind, label, record.Match, record.Field)
	if err != nil || msg == "" {
		m.logger.Warn("matching: message render failed", "field", record.Field, "error", err)
		return fmt.Sprintf("%s matches client %s", clean(label), clean(record.Match))
	}
	return msg
}

// Publish maps resp and publishes the outcome. Ids annotated by the previous
// response and absent from this one are cleared first. Error notifications
// and their batch are published before warning notifications and their
// batch, so a blocking error is never superseded by a warning from the same
// response. A non-empty result ends with a modal request asking the user to
// fix or review the flagged fields. An empty response clears every
// previously annotated id and publishes a reset batch.
//
// The emitted-id bookkeeping is updated under the mapper lock, but payloads
// are published after it is released, so handlers may publish another
// response on the same mapper.
func (m *Mapper) Publish(resp model.MatchResponse) model.MatchResult {
	bus, result, payloads := m.plan(resp)
	for _, publish := range payloads {
		publish(bus)
	}
	return result
}

type payload func(bus *notify.Bus)

func fieldPayload(n model.FieldNotification) payload {
	return func(bus *notify.Bus) {
		notify.Publish(bus, notify.FieldNotifications, n)
	}
}

func batchPayload(b model.BatchNotification) payload {
	return func(bus *notify.Bus) {
		notify.Publish(bus, notify.BatchNotifications, b)
	}
}

func (m *Mapper) plan(resp model.MatchResponse) (*notify.Bus, model.MatchResult, []payload) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []payload
	if len(resp.Matches) == 0 {
		m.logger.Debug("matching: reset", "id", resp.ID, "cleared", len(m.emitted))
		out = append(out, clearPayloads(m.emitted, nil)...)
		m.emitted = nil
		out = append(out, batchPayload(model.BatchNotification{
			Source: model.SourceMatch,
			Reset:  true,
		}))
		return m.bus, model.MatchResult{}, out
	}

	result := m.Map(resp.Matches)
	current := make(map[string]struct{}, len(result.ErrorFields)+len(result.WarningFields))
	ids := make([]string, 0, len(result.ErrorFields)+len(result.WarningFields))
	for _, group := range [][]model.FieldNotification{result.ErrorFields, result.WarningFields} {
		for _, n := range group {
			current[n.FieldID] = struct{}{}
			ids = append(ids, n.FieldID)
		}
	}
	out = append(out, clearPayloads(m.emitted, current)...)
	m.emitted = ids

	m.logger.Debug("matching: publish",
		"id", resp.ID,
		"errors", len(result.ErrorFields),
		"warnings", len(result.WarningFields),
	)

	for _, n := range result.ErrorFields {
		out = append(out, fieldPayload(n))
	}
	errorBatch := model.BatchNotification{Source: model.SourceMatch, Fields: result.ErrorFields}
	if len(result.ErrorFields) > 0 {
		errorBatch.Title = m.compiled.errorTitle
	}
	out = append(out, batchPayload(errorBatch))

	for _, n := range result.WarningFields {
		out = append(out, fieldPayload(n))
	}
	warningBatch := model.BatchNotification{Source: model.SourceMatch, Fields: result.WarningFields, Warning: true}
	if len(result.WarningFields) > 0 {
		warningBatch.Title = m.compiled.warningTitle
	}
	out = append(out, batchPayload(warningBatch))

	if !result.Empty() {
		modal := modalFor(resp.ID, result)
		out = append(out, func(bus *notify.Bus) {
			notify.Publish(bus, notify.ModalRequests, modal)
		})
	}
	return m.bus, result, out
}

// ModalKind values used on the modal request topic.
const (
	ModalKindBlocking = "blocking"
	ModalKindReview   = "review"
)

func modalFor(id string, result model.MatchResult) model.ModalRequest {
	if result.Blocking() {
		return model.ModalRequest{
			ID:      id,
			Title:   result.Title,
			Message: fmt.Sprintf("%d field(s) match an existing client. Update them before submitting.", len(result.ErrorFields)),
			Kind:    ModalKindBlocking,
		}
	}
	return model.ModalRequest{
		ID:      id,
		Title:   result.Title,
		Message: fmt.Sprintf("%d field(s) look similar to existing clients. Review them before continuing.", len(result.WarningFields)),
		Kind:    ModalKindReview,
	}
}

func clearPayloads(ids []string, keep map[string]struct{}) []payload {
	var out []payload
	for _, id := range ids {
		if _, ok := keep[id]; ok {
			continue
		}
		out = append(out, fieldPayload(model.FieldNotification{FieldID: id}))
	}
	return out
}

// Listen subscribes the mapper to match responses on bus. When the mapper
// has no bus of its own it publishes on bus as well.
func (m *Mapper) Listen(bus *notify.Bus) *notify.Subscription {
	m.mu.Lock()
	if m.bus == nil {
		m.bus = bus
	}
	m.mu.Unlock()
	return notify.Subscribe(bus, notify.MatchResponses, func(resp model.MatchResponse) {
		m.Publish(resp)
	})
}
