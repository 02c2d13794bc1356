package pairing

import (
	"fmt"
	"regexp"
	"strings"
)

// Exec templates use {{name}} placeholders, e.g.
//
//	railway ssh --service {{service_id}} -- {{command}}
//
// Every substituted value is shell-quoted before insertion so a pairing
// code or service identifier can never break out of its argument position.
var placeholderPattern = regexp.MustCompile(`\{\{([a-z_]+)\}\}`)

func renderTemplate(tmpl string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return shellQuote(value)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("unknown template placeholder(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// shellQuote wraps s in single quotes, escaping embedded single quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
