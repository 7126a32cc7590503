package prompt

import (
	"regexp"
	"sort"
)

const redactedMarker = "[REDACTED]"

// detector masks one kind of credential literal.
type detector struct {
	name string
	re   *regexp.Regexp
}

var detectors = []detector{
	{"private_key", regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`)},
	{"aws_access_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"github_token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{20,}`)},
	{"github_pat", regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`)},
	{"google_api_key", regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`)},
	{"slack_token", regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`)},
	{"stripe_key", regexp.MustCompile(`sk_(?:live|test)_[0-9A-Za-z]{10,}`)},
	{"openai_key", regexp.MustCompile(`sk-[A-Za-z0-9\-_]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9-_]{5,}\.eyJ[A-Za-z0-9-_]{5,}\.[A-Za-z0-9-_]{10,}`)},
	{"url_credentials", regexp.MustCompile(`://[^\s/:@]+:[^\s/@]+@`)},
}

// assignment detector keeps the key name and replaces only the literal.
var secretAssignment = regexp.MustCompile(`(?i)((?:api[_-]?key|client[_-]?secret|secret|token|password|passwd)\s*[:=]\s*["'])([^"'\s]{8,})(["'])`)

// RedactSecrets masks credential literals in code before it is sent to a
// model. It returns the masked code and the names of detectors that fired.
func RedactSecrets(code string) (string, []string) {
	hits := map[string]bool{}
	out := code
	for _, d := range detectors {
		if !d.re.MatchString(out) {
			continue
		}
		hits[d.name] = true
		if d.name == "url_credentials" {
			out = d.re.ReplaceAllString(out, "://"+redactedMarker+"@")
			continue
		}
		out = d.re.ReplaceAllString(out, redactedMarker)
	}
	if secretAssignment.MatchString(out) {
		replaced := secretAssignment.ReplaceAllStringFunc(out, func(m string) string {
			parts := secretAssignment.FindStringSubmatch(m)
			if parts[2] == redactedMarker {
				return m
			}
			hits["secret_assignment"] = true
			return parts[1] + redactedMarker + parts[3]
		})
		out = replaced
	}

	names := make([]string, 0, len(hits))
	for n := range hits {
		names = append(names, n)
	}
	sort.Strings(names)
	return out, names
}
