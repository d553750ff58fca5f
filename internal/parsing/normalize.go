package parsing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
}

// acronymMaxLen is the longest all-caps word kept as an acronym (AWS, SQL, HTML).
const acronymMaxLen = 4

// NormalizeSkillName returns the canonical form of a single skill name.
func NormalizeSkillName(skillName string) string {
	normalized := strings.Join(strings.Fields(skillName), " ")
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}
	if strings.Contains(normalized, " ") {
		return normalized
	}

	switch {
	case normalized == strings.ToUpper(normalized) && hasLetter(normalized):
		if len(normalized) <= acronymMaxLen {
			return normalized
		}
		return capitalize(lower)
	case normalized == lower:
		return capitalize(normalized)
	default:
		return normalized
	}
}

// NormalizeSkillList normalizes a delimited skills string. Items may be
// separated by commas, semicolons, pipes or newlines; duplicates after
// normalization keep their first position. The result is comma separated.
func NormalizeSkillList(skills string) string {
	items := strings.FieldsFunc(skills, func(r rune) bool {
		return r == ',' || r == ';' || r == '|' || r == '\n' || r == '•'
	})

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		name := NormalizeSkillName(item)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return strings.Join(out, ", ")
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
