package models

// GroupType identifies how an option group collects its answer.
type GroupType string

const (
	GroupRadio GroupType = "radio"
	GroupCheck GroupType = "check"
	GroupText  GroupType = "text"
)

// Choice is one selectable value inside an option group. Codes must be
// self-delimiting (fixed width or otherwise unambiguous when concatenated)
// because the encoded event places no separator between segments.
type Choice struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// OptionGroup is one unit of required input within an event definition.
type OptionGroup struct {
	GroupID   int       `json:"group_id"`
	GroupType GroupType `json:"group_type"`
	Choices   []Choice  `json:"choices"`
}

// EventDefinition is one entry of the recordable-event taxonomy. Option
// order is load-bearing: encoded segments follow it.
type EventDefinition struct {
	ID          int           `json:"id"`
	Description string        `json:"description"`
	Options     []OptionGroup `json:"options"`
}

// GroupAnswer holds the operator's answer for one option group of the
// selected event. Codes == nil means unanswered; radio and text answers hold
// a single code, check answers hold a sorted set of codes (possibly empty,
// meaning "nothing checked").
type GroupAnswer struct {
	GroupID   int       `json:"group_id"`
	GroupType GroupType `json:"group_type"`
	Codes     []string  `json:"codes"`
}

// Answered reports whether a value has been recorded for the group.
func (a GroupAnswer) Answered() bool {
	return a.Codes != nil
}
