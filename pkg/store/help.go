package store

import "strings"

// MakeHelp builds the help block actions expose: a summary, a description of
// the return value (a string, or a list of variant descriptions) and one
// entry per accepted parameter.
func MakeHelp(summary string, returns any, params map[string]string) map[string]any {
	if params == nil {
		params = map[string]string{}
	}
	return map[string]any{
		"summary": summary,
		"param":   params,
		"returns": returns,
	}
}

// HelpVariant describes one dispatch variant of an action for its help
// block.
func HelpVariant(returns string, params map[string]string) map[string]any {
	if params == nil {
		params = map[string]string{}
	}
	return map[string]any{
		"returns": returns,
		"param":   params,
	}
}

// ParseHelp converts a doc-style text into a help block. The first
// paragraph is the summary; lines of the form "name: description" after a
// blank line become parameter entries, and a "returns:" line sets the
// return description.
func ParseHelp(text string) map[string]any {
	var summary []string
	params := map[string]string{}
	var returns any

	inHeader := true
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			inHeader = false
			continue
		}

		name, desc, found := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !inHeader && found && !strings.Contains(name, " ") {
			desc = strings.TrimSpace(desc)
			if strings.EqualFold(name, "returns") {
				returns = desc
			} else {
				params[name] = desc
			}
			continue
		}

		if inHeader {
			summary = append(summary, line)
		}
	}
	return MakeHelp(strings.Join(summary, " "), returns, params)
}
