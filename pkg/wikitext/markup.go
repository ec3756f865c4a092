package wikitext

import (
	"regexp"
	"strings"

	"github.com/Nivmizz7/tarkov-data-overlay/pkg/tasks"
)

var (
	reHeading  = regexp.MustCompile(`^==\s*([^=].*?)\s*==\s*$`)
	reLink     = regexp.MustCompile(`\[\[([^\[\]|]*)(?:\|([^\[\]]*))?\]\]`)
	reRedirect = regexp.MustCompile(`(?i)^\s*#redirect\s*:?\s*\[\[([^\]|#]+)`)
)

// Sections splits a page into its level-two sections keyed by lowercased
// heading. Deeper headings stay inside their parent. Text before the first
// heading is stored under "".
func Sections(markup string) map[string][]string {
	out := make(map[string][]string)
	current := ""
	for _, line := range strings.Split(markup, "\n") {
		line = strings.TrimRight(line, "\r")
		if m := reHeading.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(strings.TrimSpace(m[1]))
			if _, ok := out[current]; !ok {
				out[current] = []string{}
			}
			continue
		}
		out[current] = append(out[current], line)
	}
	return out
}

// Bullets returns the text of top-level "*" bullets. Nested bullets belong
// to their parent and are skipped.
func Bullets(lines []string) []string {
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "**") {
			continue
		}
		text := strings.TrimSpace(strings.TrimPrefix(trimmed, "*"))
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}

// Infobox returns the named parameters of the first "{{Infobox ...}}"
// template, keys lowercased and trimmed.
func Infobox(markup string) map[string]string {
	lower := strings.ToLower(markup)
	start := strings.Index(lower, "{{infobox")
	if start < 0 {
		return nil
	}
	body, ok := templateBody(markup[start:])
	if !ok {
		return nil
	}
	params := make(map[string]string)
	for i, part := range splitTopLevel(body) {
		if i == 0 {
			continue // template name
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" {
			params[key] = strings.TrimSpace(value)
		}
	}
	return params
}

// templateBody returns the text between the outer braces of the template
// starting at s.
func templateBody(s string) (string, bool) {
	depth := 0
	for i := 0; i < len(s)-1; i++ {
		switch {
		case s[i] == '{' && s[i+1] == '{':
			depth++
			i++
		case s[i] == '}' && s[i+1] == '}':
			depth--
			i++
			if depth == 0 {
				return s[2 : i-1], true
			}
		}
	}
	return "", false
}

// splitTopLevel splits on "|" outside nested links and templates.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch {
		case i+1 < len(s) && (s[i:i+2] == "{{" || s[i:i+2] == "[["):
			depth++
			i++
		case i+1 < len(s) && (s[i:i+2] == "}}" || s[i:i+2] == "]]"):
			depth--
			i++
		case s[i] == '|' && depth == 0:
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

// Links returns the wiki links in text in order. File and category links
// are skipped and section anchors are dropped from targets.
func Links(text string) []tasks.Link {
	var out []tasks.Link
	for _, m := range reLink.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if i := strings.IndexByte(target, '#'); i >= 0 {
			target = strings.TrimSpace(target[:i])
		}
		if target == "" || isNamespaced(target) {
			continue
		}
		out = append(out, tasks.Link{Target: target, Display: strings.TrimSpace(m[2])})
	}
	return out
}

func isNamespaced(target string) bool {
	prefix, _, found := strings.Cut(target, ":")
	if !found {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(prefix)) {
	case "file", "image", "category", "template", "special":
		return true
	}
	return false
}

// Redirect returns the target of a "#REDIRECT [[...]]" page.
func Redirect(markup string) (string, bool) {
	m := reRedirect.FindStringSubmatch(markup)
	if m == nil {
		return "", false
	}
	target := strings.TrimSpace(m[1])
	return target, target != ""
}
