package processor

import "strings"

type analysis struct {
	category    string
	priority    string
	summary     string
	actionItems []string
}

// parseReply scans the model's free-text reply for the labeled sections.
// Prefix matching is case-insensitive and tolerates markdown decoration
// around the labels. The summary accumulates continuation lines until a
// blank line or the next recognized label. Bullet lines after
// "Action Items" accumulate until a blank line or the end of the reply;
// a lone "None" bullet and a missing section both mean no items. Missing
// sections take the documented defaults instead of failing the message.
func parseReply(reply string) analysis {
	a := analysis{
		category: DefaultCategory,
		priority: DefaultPriority,
	}

	inActions := false
	inSummary := false
	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)

		if inActions {
			if trimmed == "" {
				inActions = false
				continue
			}
			if item, ok := bulletText(trimmed); ok {
				if !strings.EqualFold(item, "none") && item != "" {
					a.actionItems = append(a.actionItems, item)
				}
				continue
			}
			inActions = false
		}

		label := strings.TrimLeft(trimmed, "#* ")
		lower := strings.ToLower(label)
		switch {
		case strings.HasPrefix(lower, "category:"):
			inSummary = false
			if v := sectionValue(label, "category:"); v != "" {
				a.category = v
			}
		case strings.HasPrefix(lower, "priority:"):
			inSummary = false
			if v := sectionValue(label, "priority:"); v != "" {
				a.priority = v
			}
		case strings.HasPrefix(lower, "summary:"):
			inSummary = true
			a.summary = sectionValue(label, "summary:")
		case strings.HasPrefix(lower, "action items"):
			inSummary = false
			inActions = true
		default:
			if !inSummary {
				continue
			}
			if trimmed == "" {
				inSummary = false
				continue
			}
			if a.summary == "" {
				a.summary = trimmed
			} else {
				a.summary += " " + trimmed
			}
		}
	}
	return a
}

// sectionValue strips the matched prefix and any markdown residue, e.g.
// "**Category:** Work" yields "Work".
func sectionValue(label, prefix string) string {
	v := label[len(prefix):]
	return strings.TrimSpace(strings.TrimLeft(v, "* "))
}

func bulletText(line string) (string, bool) {
	for _, marker := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	switch line {
	case "-", "*", "•":
		return "", true
	}
	return "", false
}
