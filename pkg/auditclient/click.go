package auditclient

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/sao-registrar-api/pkg/audit"
)

const maxLabelLength = 60

var lucideIcon = regexp.MustCompile(`lucide-([a-z0-9-]+)`)

// Element is the clickable element a UI interaction landed on.
type Element struct {
	Tag         string
	Type        string
	AriaLabel   string
	Title       string
	Text        string
	Placeholder string
	Value       string
	Name        string
	ID          string
	// ForLabel is the text of a <label for=ID> pointing at the element.
	ForLabel string
	// HasIcon is set when the element wraps an svg or icon; IconClass is
	// that icon's class attribute.
	HasIcon   bool
	IconClass string
}

// DescribeClick renders the details of a UI interaction on path.
func DescribeClick(el Element, path string) string {
	tag := strings.ToLower(strings.TrimSpace(el.Tag))
	label := clickLabel(el, tag)

	var action string
	switch {
	case tag == "input" && el.Type == "checkbox":
		action = fmt.Sprintf("Toggled checkbox %q", label)
	case tag == "select":
		action = fmt.Sprintf("Opened dropdown %q", label)
	case tag == "input" && el.Type != "submit" && el.Type != "button":
		action = fmt.Sprintf("Focused input %q", label)
	default:
		action = fmt.Sprintf("Clicked %q", label)
	}
	return action + " on " + path
}

// RecordClick records a UI interaction by user, or by "Guest" when nobody is
// signed in.
func (w *Writer) RecordClick(el Element, path, user string) audit.Entry {
	if strings.TrimSpace(user) == "" {
		user = "Guest"
	}
	return w.Record(audit.Entry{
		Action:   "UI Interaction",
		User:     user,
		Status:   audit.StatusSuccess,
		Details:  DescribeClick(el, path),
		Category: audit.CategoryClick,
	})
}

func clickLabel(el Element, tag string) string {
	label := firstNonBlank(el.AriaLabel, el.Title, el.Text, el.Placeholder, el.Value, el.Name)
	if label == "" && el.ID != "" && tag == "input" {
		label = strings.TrimSpace(el.ForLabel)
	}
	if label == "" {
		label = strings.TrimSpace(el.ID)
	}

	if label == "" {
		switch {
		case el.HasIcon:
			label = "Icon Button"
			if match := lucideIcon.FindStringSubmatch(el.IconClass); match != nil {
				label = match[1] + " icon"
			}
		default:
			label = "<" + tag + ">"
		}
	}

	label = strings.Join(strings.Fields(label), " ")
	if utf8.RuneCountInString(label) > maxLabelLength {
		label = string([]rune(label)[:maxLabelLength])
	}
	return label
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
