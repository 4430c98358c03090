// internal/service/template_service.go
package service

import (
	"html"
	"sort"
	"strings"

	"github.com/davencourt/mailliste-backend/internal/model"
)

// PlaceholderMap builds the substitution data for one contact. Every key
// listed here renders as the empty string when the field is unset;
// tokens outside this set are left in the text verbatim.
func PlaceholderMap(c *model.Contact) map[string]string {
	return map[string]string{
		"uid":          c.UID,
		"first_name":   c.FirstName,
		"last_name":    c.LastName,
		"full_name":    c.FullName(),
		"email":        c.Email,
		"phone":        c.Phone,
		"organization": c.Organization,
		"street":       c.Street,
		"street2":      c.Street2,
		"city":         c.City,
		"postal_code":  c.PostalCode,
		"region":       c.Region,
		"country":      c.Country,
		"source":       c.Source,
		"notes":        c.Notes,
	}
}

// RenderTemplate substitutes {key} tokens with values from data. Both the
// compact {key} form and the spaced {{ key }} form are accepted. When
// escapeHTML is set, values (not the template) are HTML-escaped.
//
// Substitution is a single pass over the template and replaced text is
// never rescanned, so a value that itself looks like a token stays
// literal and rendering the same input twice gives identical output.
func RenderTemplate(template string, data map[string]string, escapeHTML bool) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// The longer {{ key }} spellings go first per key so they win over
	// the inner {key}.
	pairs := make([]string, 0, 6*len(keys))
	for _, k := range keys {
		v := data[k]
		if escapeHTML {
			v = html.EscapeString(v)
		}
		pairs = append(pairs,
			"{{ "+k+" }}", v,
			"{{"+k+"}}", v,
			"{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// RenderForContact renders a template body against one contact.
func RenderForContact(template string, c *model.Contact, format string) string {
	return RenderTemplate(template, PlaceholderMap(c), format == model.FormatHTML)
}
