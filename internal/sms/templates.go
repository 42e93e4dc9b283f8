// Package sms implements the SMS template renderer (C7): a pure
// function from a template identifier and variable mapping to a
// rendered message, its code-point length, and single-segment
// validity. Templates are defined here in source, never loaded from
// user input, per spec §4.7.
package sms

import (
	"regexp"
	"unicode/utf8"

	"github.com/MrE-scrum-master/courtesy-inspection/internal/errs"
)

// maxSingleSegmentLength is the single-segment SMS budget (GSM-7/UCS-2
// concatenation boundaries are a carrier concern out of scope here;
// spec §4.7 fixes this at 160 code points).
const maxSingleSegmentLength = 160

// Rendered is the output of Render.
type Rendered struct {
	Message      string `json:"message"`
	Length       int    `json:"length"`
	Valid        bool   `json:"valid"`
	TemplateName string `json:"template_name"`
}

// templates maps a template identifier to its source string. Each
// placeholder is written as {name}.
var templates = map[string]string{
	"inspection_complete":  "Hi {customer_name}, your {vehicle} inspection at {shop_name} is complete. View your report: {link}",
	"service_recommended":  "Hi {customer_name}, we found {item_count} item(s) needing attention on your {vehicle}. Details: {portal_url}",
	"appointment_reminder": "Reminder: {customer_name}, your appointment at {shop_name} is on {appointment_time}.",
	"thank_you":            "Thank you {customer_name} for choosing {shop_name}. We appreciate your business!",
	"follow_up":            "Hi {customer_name}, following up on your recent visit to {shop_name}. Questions? Call {shop_phone}.",
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render substitutes every {placeholder} in the named template with
// the corresponding entry in vars. Fails Invalid naming the variable
// when a placeholder has no entry in vars.
func Render(templateName string, vars map[string]string) (*Rendered, error) {
	tmpl, ok := templates[templateName]
	if !ok {
		return nil, errs.Invalidf("unknown template %q", templateName).WithField("template_name")
	}

	var missing string
	message := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		val, present := vars[name]
		if !present {
			if missing == "" {
				missing = name
			}
			return match
		}
		return val
	})
	if missing != "" {
		return nil, errs.Invalidf("missing value for placeholder %q", missing).WithField(missing)
	}

	length := utf8.RuneCountInString(message)
	return &Rendered{
		Message:      message,
		Length:       length,
		Valid:        length <= maxSingleSegmentLength,
		TemplateName: templateName,
	}, nil
}

// Names returns the enumerated template identifiers, e.g. for a
// listing endpoint or request validator.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	return names
}
