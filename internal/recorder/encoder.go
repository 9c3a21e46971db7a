// Package recorder drives the operator through selecting one taxonomy entry
// and answering its option groups, validates completeness, and serializes
// the selection into the compact event code submitted to the sink.
package recorder

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/drivestudy/annotator/internal/models"
	"github.com/drivestudy/annotator/pkg/apperr"
)

// NoEvent is the sentinel event id meaning no taxonomy entry is selected.
const NoEvent = -1

// Notifier delivers state-change events to the rendering layer.
type Notifier interface {
	Notify(event string, payload interface{})
}

// Events emitted through the Notifier.
const (
	EventSelected  = "event_selected"
	AnswerUpdated  = "answer_updated"
	EventSubmitted = "event_submitted"
)

// Encoder owns the currently selected event definition and the per-group
// answer state. It is reused indefinitely across submissions.
type Encoder struct {
	mu sync.Mutex

	defs     []models.EventDefinition
	byID     map[int]int // event id -> index into defs
	selected int         // NoEvent when nothing is chosen
	answers  []models.GroupAnswer

	notifier Notifier
	log      *zap.Logger
}

// NewEncoder creates an encoder over the given taxonomy. Definitions are
// consumed read-only.
func NewEncoder(defs []models.EventDefinition, notifier Notifier, log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	byID := make(map[int]int, len(defs))
	for i, d := range defs {
		byID[d.ID] = i
	}
	return &Encoder{
		defs:     defs,
		byID:     byID,
		selected: NoEvent,
		notifier: notifier,
		log:      log,
	}
}

// Definitions returns the taxonomy the encoder was built over.
func (e *Encoder) Definitions() []models.EventDefinition {
	return e.defs
}

// SelectEvent makes the given taxonomy entry active and rebuilds the answer
// state with one unanswered entry per option group, in definition order.
// Passing NoEvent deselects and empties the answers.
func (e *Encoder) SelectEvent(eventID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if eventID == NoEvent {
		e.selected = NoEvent
		e.answers = nil
		e.notifyLocked(EventSelected)
		return nil
	}
	idx, ok := e.byID[eventID]
	if !ok {
		return apperr.NotFound("unknown event id " + strconv.Itoa(eventID))
	}
	def := e.defs[idx]
	answers := make([]models.GroupAnswer, len(def.Options))
	for i, g := range def.Options {
		answers[i] = models.GroupAnswer{GroupID: g.GroupID, GroupType: g.GroupType}
	}
	e.selected = eventID
	e.answers = answers
	e.notifyLocked(EventSelected)
	return nil
}

// SetAnswer replaces the value of the option group identified by groupID.
// Radio and text groups take exactly one code; check groups take any number
// and are stored sorted so the serialization is independent of click order.
func (e *Encoder) SetAnswer(groupID int, codes []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.answers {
		if e.answers[i].GroupID != groupID {
			continue
		}
		switch e.answers[i].GroupType {
		case models.GroupCheck:
			sorted := make([]string, len(codes))
			copy(sorted, codes)
			sort.Strings(sorted)
			e.answers[i].Codes = sorted
		default: // radio, text
			if len(codes) != 1 {
				return apperr.Validation("group " + strconv.Itoa(groupID) + " takes exactly one value")
			}
			e.answers[i].Codes = []string{codes[0]}
		}
		e.notifyLocked(AnswerUpdated)
		return nil
	}
	return apperr.NotFound("no option group " + strconv.Itoa(groupID) + " in the selected event")
}

// Validate checks submission readiness and returns the failure reasons, or
// nil when the state is encodable. Unanswered check groups are a legitimate
// "nothing checked" answer; text groups are currently not validated.
func (e *Encoder) Validate() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateLocked()
}

func (e *Encoder) validateLocked() []string {
	if e.selected == NoEvent {
		return []string{"no event selected"}
	}
	var reasons []string
	for _, a := range e.answers {
		if a.GroupType == models.GroupRadio && !a.Answered() {
			reasons = append(reasons, "unanswered required selection in group "+strconv.Itoa(a.GroupID))
		}
	}
	return reasons
}

// Encode validates and serializes the current selection:
// "<eventId>-<segments...>" with one segment per option group in definition
// order and no separator between segments. Check segments concatenate the
// sorted codes; an empty or unanswered check group yields an empty segment.
// Decoding on the receiving side relies on the taxonomy's codes being
// self-delimiting.
func (e *Encoder) Encode() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if reasons := e.validateLocked(); len(reasons) > 0 {
		return "", apperr.Validation(strings.Join(reasons, "; "))
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(e.selected))
	b.WriteByte('-')
	for _, a := range e.answers {
		for _, code := range a.Codes {
			b.WriteString(code)
		}
	}
	return b.String(), nil
}

// State returns a snapshot for the UI layer. The answers slice is copied;
// Codes are shared read-only.
func (e *Encoder) State() models.RecorderState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Encoder) stateLocked() models.RecorderState {
	answers := make([]models.GroupAnswer, len(e.answers))
	copy(answers, e.answers)
	return models.RecorderState{EventID: e.selected, Answers: answers}
}

// NotifySubmitted announces a successful submission. Answer state is kept
// so the operator can adjust and resubmit without re-answering.
func (e *Encoder) NotifySubmitted(timestamp, encoded string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log.Info("event submitted", zap.String("time", timestamp), zap.String("event", encoded))
	if e.notifier != nil {
		e.notifier.Notify(EventSubmitted, map[string]string{"time": timestamp, "event": encoded})
	}
}

func (e *Encoder) notifyLocked(event string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(event, e.stateLocked())
}
