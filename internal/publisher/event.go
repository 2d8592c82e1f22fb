package publisher

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EventPrefix is the token every event name must start with.
const EventPrefix = "tester"

// Well-known events. Any other name starting with EventPrefix is also valid.
const (
	EventProgress    EventName = "testerProgress"
	EventPctComplete EventName = "testerPctComplete"
	EventBugCount    EventName = "testerBugCount"
)

// DefaultEvent is used when no event name is given.
const DefaultEvent = EventProgress

// EventName is a validated event name. The zero value is not valid; obtain
// one from ParseEventName or use one of the constants.
type EventName string

// ParseEventName validates v as an event name. v must be a string that
// starts with EventPrefix followed by at least one character.
func ParseEventName(v any) (EventName, error) {
	s, ok := v.(string)
	if !ok {
		return "", &InvalidArgumentError{Field: "event", Message: fmt.Sprintf("must be a string, got %T", v)}
	}
	if !strings.HasPrefix(s, EventPrefix) {
		return "", &InvalidArgumentError{Field: "event", Message: fmt.Sprintf("must start with the text %q, got %q", EventPrefix, s)}
	}
	if len(s) == len(EventPrefix) {
		return "", &InvalidArgumentError{Field: "event", Message: fmt.Sprintf("must name an event after the %q prefix", EventPrefix)}
	}
	return EventName(s), nil
}

// Key returns the data key for the event: the name without its prefix, with
// the first character lower-cased. "testerPctComplete" becomes "pctComplete".
func (e EventName) Key() string {
	rest := strings.TrimPrefix(string(e), EventPrefix)
	r, size := utf8.DecodeRuneInString(rest)
	if r == utf8.RuneError {
		return rest
	}
	return string(unicode.ToLower(r)) + rest[size:]
}

func (e EventName) String() string {
	return string(e)
}
