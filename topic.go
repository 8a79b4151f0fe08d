package mqttv3

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidTopicName   = errors.New("invalid topic name")
	ErrInvalidTopicFilter = errors.New("invalid topic filter")
	ErrEmptyTopic         = errors.New("topic cannot be empty")
)

const (
	topicSeparator      = "/"
	singleLevelWildcard = "+"
	multiLevelWildcard  = "#"
)

// ValidateTopicName validates a topic name used in PUBLISH.
// Topic names cannot contain wildcards and must be valid UTF-8 without NUL.
func ValidateTopicName(topic string) error {
	if topic == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(topic) || strings.ContainsAny(topic, "\x00+#") {
		return ErrInvalidTopicName
	}

	return nil
}

// ValidateTopicFilter validates a topic filter used in SUBSCRIBE and UNSUBSCRIBE.
func ValidateTopicFilter(filter string) error {
	if filter == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(filter) || strings.ContainsRune(filter, 0) {
		return ErrInvalidTopicFilter
	}

	levels := strings.Split(filter, topicSeparator)
	for i, level := range levels {
		// Wildcards must occupy an entire level
		if strings.Contains(level, singleLevelWildcard) && level != singleLevelWildcard {
			return ErrInvalidTopicFilter
		}

		// Multi-level wildcard must also be the last level
		if strings.Contains(level, multiLevelWildcard) {
			if level != multiLevelWildcard || i != len(levels)-1 {
				return ErrInvalidTopicFilter
			}
		}
	}

	return nil
}

// TopicMatch checks if a topic name matches a topic filter.
func TopicMatch(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}

	// Topics starting with $ are not matched by a leading wildcard
	if topic[0] == '$' && (filter[0] == '+' || filter[0] == '#') {
		return false
	}

	fl := strings.Split(filter, topicSeparator)
	tl := strings.Split(topic, topicSeparator)

	for i, level := range fl {
		if level == multiLevelWildcard {
			return true
		}
		if i >= len(tl) {
			return false
		}
		if level != singleLevelWildcard && level != tl[i] {
			return false
		}
	}

	return len(fl) == len(tl)
}
