// Package indexname derives a stable grouping key from a source path,
// stripping the noisy components (build numbers, container hashes,
// UID-looking runs) so that logically-similar sources from different
// runs land in the same group.
package indexname

import (
	"path"
	"strings"

	"github.com/dlclark/regexp2"
)

var uidRE = regexp2.MustCompile(
	`([0-9a-zA-Z]{63,128}|[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})`,
	regexp2.None,
)

func isLowercaseVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func containsVowel(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if isLowercaseVowel(c) {
			return true
		}
	}
	return false
}

func isHexadecimal(name string) bool {
	base := strings.Trim(name, "-_.")
	if base == "" {
		return true
	}
	for i := 0; i < len(base); i++ {
		c := base[i]
		if !((c >= 'a' && c <= 'f') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func isDirNameIrrelevant(name string) bool {
	if isHexadecimal(name) || !containsVowel(name) {
		return true
	}
	switch name {
	case "util", "tasks", "manager", "current", "logs", "init":
		return true
	}
	return false
}

// getParentName walks up the directory chain looking for the first
// ancestor whose basename carries a meaningful (non-hex,
// vowel-containing) component.
func getParentName(p string) (string, bool) {
	dir := path.Dir(p)
	if dir == "." || dir == "/" || dir == p {
		return "", false
	}
	name := path.Base(dir)
	if !isDirNameIrrelevant(name) {
		return name, true
	}
	return getParentName(dir)
}

func removeUID(base string) string {
	out, err := uidRE.Replace(base, "UID", 0, -1)
	if err != nil {
		return base
	}
	return out
}

// removeNonVowelComponent drops dash/underscore/dot-delimited pieces
// that are either purely hexadecimal or vowel-free noise, keeping the
// separators attached to the piece that precedes them.
func removeNonVowelComponent(name string) string {
	var b strings.Builder
	start := 0
	flush := func(end int) {
		component := name[start:end]
		if component == "" {
			return
		}
		if !isHexadecimal(component) && containsVowel(component) {
			b.WriteString(component)
		}
	}
	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '-', '_', '.':
			flush(i + 1)
			start = i + 1
		}
	}
	flush(len(name))
	return b.String()
}

func cleanName(base string) string {
	if strings.HasPrefix(base, "instance-00") {
		return "instance"
	}
	cleaned := removeNonVowelComponent(base)
	var b strings.Builder
	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '.' || c == '-' {
			b.WriteByte(c)
		}
	}
	out := b.String()
	for strings.HasSuffix(out, ".gz") {
		out = strings.TrimSuffix(out, ".gz")
	}
	for strings.HasSuffix(out, ".txt") {
		out = strings.TrimSuffix(out, ".txt")
	}
	return strings.Trim(out, "._-")
}

// FromPath derives the IndexName grouping key for a source path.
func FromPath(base string) string {
	baseNoID := removeUID(base)
	filename := path.Base(baseNoID)
	if filename == "." || filename == "/" {
		filename = "NA"
	}
	if parent, ok := getParentName(baseNoID); ok {
		return cleanName(parent) + "/" + cleanName(filename)
	}
	return cleanName(filename)
}
