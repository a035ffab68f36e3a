package spell

import "strings"

// EvalCondition renders an action's `if:` template and evaluates the result.
// Supported forms, after rendering:
//
//	lhs == rhs   equality after trimming and quote stripping
//	lhs != rhs   inequality
//	true/1/yes/y and false/0/no/n as literal booleans
//
// An empty condition (or one rendering to empty) passes. Any other non-empty
// text is truthy.
func EvalCondition(cond string, ctx map[string]FrameContext) (bool, error) {
	if cond == "" {
		return true, nil
	}

	rendered, err := Render(cond, ctx)
	if err != nil {
		return false, err
	}

	text := strings.TrimSpace(rendered)
	if text == "" {
		return true, nil
	}

	if lhs, rhs, found := strings.Cut(text, "=="); found {
		return normalizeConditionValue(lhs) == normalizeConditionValue(rhs), nil
	}
	if lhs, rhs, found := strings.Cut(text, "!="); found {
		return normalizeConditionValue(lhs) != normalizeConditionValue(rhs), nil
	}

	switch strings.ToLower(text) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return text != "", nil
}

func normalizeConditionValue(value string) string {
	return stripMatchingQuotes(strings.TrimSpace(value))
}

func stripMatchingQuotes(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
