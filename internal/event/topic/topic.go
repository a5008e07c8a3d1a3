package topic

import (
	"errors"
	"strings"
)

// Topic is a dotted bridge name, or a pattern over bridge names.
// Examples: "CustomerSelected", "sales.order.created", "sales.*".
type Topic string

// Wildcard constants for pattern matching.
const (
	// WildcardSingle matches exactly one segment.
	WildcardSingle = "*"

	// WildcardMulti matches zero or more segments.
	WildcardMulti = "**"

	// Separator is the character used to separate topic segments.
	Separator = "."
)

// ErrInvalidTopic is matched by every InvalidTopicError.
var ErrInvalidTopic = errors.New("invalid topic")

// InvalidTopicError reports a malformed name or pattern.
type InvalidTopicError struct {
	Topic  string
	Reason string
}

func (e *InvalidTopicError) Error() string {
	return "invalid topic " + `"` + e.Topic + `": ` + e.Reason
}

// Is allows errors.Is to match InvalidTopicError with ErrInvalidTopic.
func (e *InvalidTopicError) Is(target error) bool {
	return target == ErrInvalidTopic
}

// Parse validates s as a concrete name. Wildcards are rejected.
func Parse(s string) (Topic, error) {
	t := Topic(s)
	if err := t.validate(); err != nil {
		return "", err
	}
	if t.IsWildcard() {
		return "", &InvalidTopicError{Topic: s, Reason: "wildcards are only allowed in patterns"}
	}
	return t, nil
}

// ParsePattern validates s as a pattern. "*" and "**" must occupy a whole
// segment.
func ParsePattern(s string) (Topic, error) {
	t := Topic(s)
	if err := t.validate(); err != nil {
		return "", err
	}
	for _, seg := range t.Segments() {
		if seg != WildcardSingle && seg != WildcardMulti && strings.Contains(seg, WildcardSingle) {
			return "", &InvalidTopicError{Topic: s, Reason: "wildcard must be a whole segment"}
		}
	}
	return t, nil
}

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Segments returns the topic split by the separator.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), Separator)
}

// SegmentCount returns the number of segments in the topic.
func (t Topic) SegmentCount() int {
	if t == "" {
		return 0
	}
	return strings.Count(string(t), Separator) + 1
}

// Base returns the last segment of the topic.
//
// Example: "sales.order.created" -> "created"
func (t Topic) Base() string {
	s := string(t)
	idx := strings.LastIndex(s, Separator)
	if idx < 0 {
		return s
	}
	return s[idx+1:]
}

// IsWildcard returns true if the topic contains any wildcard characters.
func (t Topic) IsWildcard() bool {
	return strings.Contains(string(t), WildcardSingle)
}

// IsValid returns true if the topic is non-empty, has no empty segments and
// contains no whitespace.
func (t Topic) IsValid() bool {
	return t.validate() == nil
}

func (t Topic) validate() error {
	s := string(t)
	if s == "" {
		return &InvalidTopicError{Topic: s, Reason: "empty"}
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return &InvalidTopicError{Topic: s, Reason: "contains whitespace"}
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return &InvalidTopicError{Topic: s, Reason: "empty segment"}
		}
	}
	return nil
}

// Matches returns true if this topic matches the given pattern.
// The pattern may contain wildcards:
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	ti, pi := 0, 0

	for pi < len(pattern) {
		if pattern[pi] == WildcardMulti {
			for ti <= len(topic) {
				if matchSegments(topic[ti:], pattern[pi+1:]) {
					return true
				}
				ti++
			}
			return false
		}

		if ti >= len(topic) {
			return false
		}

		if pattern[pi] != WildcardSingle && pattern[pi] != topic[ti] {
			return false
		}
		ti++
		pi++
	}

	return ti == len(topic)
}

// Join joins multiple segments into a topic.
func Join(segments ...string) Topic {
	return Topic(strings.Join(segments, Separator))
}
