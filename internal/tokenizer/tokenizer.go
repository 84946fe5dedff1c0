// Package tokenizer replaces varying words in a raw log line with
// fixed sentinels (e.g. `sha256://...` becomes `%HASH`), producing a
// canonical token string suitable for bag-of-words feature extraction.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/dlclark/regexp2"
)

var (
	wordSplitRE      = regexp2.MustCompile(`([ \t]|\\[nr])+`, regexp2.None)
	globalFilterRE   = regexp2.MustCompile(globalFilterPattern, regexp2.None)
	removeNumbersRE  = regexp2.MustCompile(`([0-9]+\.[0-9]+)|([0-9]+)`, regexp2.None)
	isDateRE         = regexp2.MustCompile(`(?i)^(sunday|monday|tuesday|wednesday|thursday|friday|saturday|january|february|march|april|may|june|july|august|september|october|november|december)$`, regexp2.None)
	isErrorRE        = regexp2.MustCompile(`(?i)^(error|fatal|failure|failed|warning|err|fail|warn|denied|assert|assertion|non-zero|exception|traceback)$`, regexp2.None)
	containsOddRE    = regexp2.MustCompile(`[<>{}%$,*]`, regexp2.None)
	isUIDRE          = regexp2.MustCompile(`^(:*[\[\]0-9a-fA-FxZ,]+[:.-]*|rabbitmq-cluster-id-.*)+$`, regexp2.None)
	isUUIDRE         = regexp2.MustCompile(`^[a-zA-Z0-9].*-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}-[a-zA-Z0-9]{4}-$`, regexp2.None)
	hasManyDashRE    = regexp2.MustCompile(`^.+-.+-.+-.`, regexp2.None)
	isCookieRE       = regexp2.MustCompile(`^(gAAAA|AAAA|tx[a-z]|tap|req-|AUTH_)`, regexp2.None)
	isURLRE          = regexp2.MustCompile(`(?i)^(https|http|ftp|ssh)://`, regexp2.None)
	isBase64RE       = regexp2.MustCompile(`^[A-Za-z0-9+/=]+$`, regexp2.None)
	isSystemdUnitRE  = regexp2.MustCompile(`^[a-z]+_[a-z]+\[[0-9]+\]:$`, regexp2.None)
	isHashPrefixRE   = regexp2.MustCompile(`(?i)^(hash|sha|md)[0-9]*[:~]`, regexp2.None)
	isHashLongRunRE  = regexp2.MustCompile(`\.?[a-zA-Z0-9_+/-]{64,}`, regexp2.None)
	isRefsRE         = regexp2.MustCompile(`^\w{7}\.\.\w{7}$`, regexp2.None)
	isKeyForIDRE     = regexp2.MustCompile(`(?i)(id|key|ref|region|token|secret|password|pipeline)`, regexp2.None)
)

// global_filter covers HTTP probes, yum-mirror chatter, OVS/iptables
// debug dumps, chrony sync lines, dnsmasq logs, memcached handshakes,
// shell `+` traces, sysctl tap names, and SSH randomart.
const globalFilterPattern = `GET / HTTP/1.1|\* [a-zA-Z]+: [a-zA-Z0-9\.-]*$|Trying other mirror.|ovs-ofctl .* (dump-ports|dump-flows|show)\b|(ip|eb)tables .* -L\b|(^\^[+*-] [a-z0-9\.>-]{5,} [0-9])|dnsmasq(\[[0-9]+\])?: (query|forwarded|reply|cached|config)|(^[a-f0-9s/]+>[0-9]+ )|(^\+\+ echo [^ ]+$)|(^net.ipv[46].(conf|neigh).tap)|(^[" \t]*net.interface.tap)|([ '",]*\|.{17}\|[ '",]*$)`

func reMatch(re *regexp2.Regexp, s string) bool {
	ok, _ := re.MatchString(s)
	return ok
}

// wordIter walks the whitespace-split words of a line, letting a
// classifier consume an extra word ahead of the main loop (used by
// the key=value rules to swallow a value on a separate token).
type wordIter struct {
	words []string
	pos   int
}

func (w *wordIter) next() (string, bool) {
	if w.pos >= len(w.words) {
		return "", false
	}
	s := w.words[w.pos]
	w.pos++
	return s, true
}

// words splits a line the way the classifier expects: on runs of
// plain spaces/tabs or literal `\n`/`\r` escapes, keeping empty
// leading/trailing pieces.
func words(line string) []string {
	var parts []string
	pos := 0
	m, _ := wordSplitRE.FindStringMatch(line)
	for m != nil {
		start := m.Index
		end := start + m.Length
		parts = append(parts, line[pos:start])
		pos = end
		m, _ = wordSplitRE.FindNextMatch(m)
	}
	parts = append(parts, line[pos:])
	return parts
}

func trimQuoteAndPunctuation(word string) string {
	for strings.HasPrefix(word, `u"`) {
		word = word[2:]
	}
	for strings.HasPrefix(word, "u'") {
		word = word[2:]
	}
	return strings.Trim(word, "'\",;(){}[]<>\\")
}

func globalFilter(line string) bool {
	if !strings.ContainsFunc(line, unicode.IsSpace) {
		return true
	}
	return reMatch(globalFilterRE, line)
}

func removeNumbers(word string) string {
	out, err := removeNumbersRE.Replace(word, "N", 0, -1)
	if err != nil {
		return word
	}
	return out
}

func isDate(word string) bool { return reMatch(isDateRE, word) }

func isError(word string) bool { return reMatch(isErrorRE, word) }

func containsOddChar(word string) bool { return reMatch(containsOddRE, word) }

func isLowercaseVowel(c rune) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}

func isLowercaseConsonant(c rune) bool {
	switch c {
	case 'b', 'c', 'd', 'f', 'g', 'h', 'j', 'k', 'l', 'm', 'n', 'p', 'q', 'r', 's', 't', 'v', 'w', 'x', 'z':
		return true
	}
	return false
}

func containsNoVowel(word string) bool {
	found := false
	for _, r := range strings.ToLower(word) {
		if isLowercaseVowel(r) {
			return false
		} else if isLowercaseConsonant(r) {
			found = true
		}
	}
	return found
}

// isUID matches a purely hex+separator token, or a word without any vowel.
func isUID(word string) bool {
	return reMatch(isUIDRE, word) || containsNoVowel(word)
}

// isUUID matches three dash-joined 4-char groups, the %UID sentinel.
func isUUID(word string) bool { return reMatch(isUUIDRE, word) }

func hasManyDash(word string) bool { return reMatch(hasManyDashRE, word) }

func isCookie(word string) bool { return reMatch(isCookieRE, word) }

func isURL(word string) bool { return reMatch(isURLRE, word) }

func isBase64(word string) bool {
	if strings.HasSuffix(word, "==") {
		return true
	}
	return len(word) > 24 && (strings.HasSuffix(word, "=") || reMatch(isBase64RE, word))
}

func isSystemdUnitContainerPID(word string) bool { return reMatch(isSystemdUnitRE, word) }

func isHash(word string) bool {
	if strings.HasPrefix(word, "/") {
		return false
	}
	return reMatch(isHashPrefixRE, word) || reMatch(isHashLongRunRE, word)
}

func isRefs(word string) bool {
	if strings.HasPrefix(word, "refs/") || strings.HasPrefix(word, "repos/") {
		return true
	}
	return reMatch(isRefsRE, word)
}

func isKeyValue(word string) (key, value string, ok bool) {
	idx := strings.IndexAny(word, "=:")
	if idx < 0 {
		return "", "", false
	}
	k, v := word[:idx], word[idx+1:]
	if k == "" {
		return "", "", false
	}
	c := k[0]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' {
		return k, v, true
	}
	return "", "", false
}

// isTwoWords separates attached words like `DHCPOFFER(ipaddr)`.
func isTwoWords(word string) (w1, w2 string, ok bool) {
	idx := strings.IndexAny(word, "([\\@")
	if idx < 0 {
		return "", "", false
	}
	w1 = word[:idx]
	w2 = strings.TrimRight(word[idx+1:], "])")
	return w1, w2, true
}

func isKeyForID(word string) bool { return reMatch(isKeyForIDRE, word) }

func isPasswordKey(word string) bool {
	return strings.HasSuffix(word, "password:") || strings.HasSuffix(word, "password=")
}

func isRandomPath(word string) bool {
	return strings.Contains(word, "tmp/") || strings.Contains(word, "/tmp") || strings.HasPrefix(word, "tmp")
}

func parseLiteral(word string) (string, bool) {
	switch {
	case isDate(word):
		return "%DATE", true
	case isHash(word):
		return "%HASH", true
	case isUID(word):
		return "%ID", true
	case isCookie(word):
		return "%COOKIE", true
	case isUUID(word):
		return "%UID", true
	case isURL(word):
		return "%URL", true
	case isRandomPath(word):
		return "%PATH", true
	case isRefs(word):
		return "%REF", true
	case isBase64(word):
		return "%BASE64", true
	case isSystemdUnitContainerPID(word):
		return "%UNIT", true
	}
	return "", false
}

// trimPID strips a trailing numeric PID in `name[NNN]`, returning the
// name without its trailing `[`.
func trimPID(word string) (string, bool) {
	i := len(word)
	for i > 0 && word[i-1] >= '0' && word[i-1] <= '9' {
		i--
	}
	trimmed := word[:i]
	if strings.HasSuffix(trimmed, "[") {
		return trimmed[:len(trimmed)-1], true
	}
	return "", false
}

// pushError makes an error token appear bigger so it up-weights the
// bag-of-words distance to normal.
func pushError(word string, result *strings.Builder) {
	result.WriteString(word)
	result.WriteByte(' ')
	for _, suffix := range []string{"%A ", "%B ", "%C ", "%D"} {
		result.WriteString(word)
		result.WriteString(suffix)
	}
}

// doProcess is the tokenizer's recursive classifier. It returns
// whether anything was written to result, which the caller uses to
// decide whether to insert a trailing separator.
func doProcess(baseWord string, it *wordIter, result *strings.Builder) bool {
	word := trimQuoteAndPunctuation(baseWord)
	added := true

	switch {
	case word == "":
		added = false

	case func() bool { _, ok := parseLiteral(word); return ok }():
		token, _ := parseLiteral(word)
		result.WriteString(token)

	case isError(word):
		pushError(word, result)

	case len(word) <= 3:
		added = false

	case func() bool { _, ok := trimPID(word); return ok }():
		strip, _ := trimPID(word)
		doProcess(strip, it, result)
		result.WriteString("%PID")

	case containsOddChar(word):
		result.WriteString("%ODD")

	default:
		if key, value, ok := isKeyValue(word); ok {
			doProcess(key, it, result)
			if isKeyForID(key) {
				if value == "" {
					it.next()
				}
				result.WriteString("%EQ %VALUE_ID")
			} else {
				result.WriteString("%EQ ")
				added = doProcess(value, it, result)
			}
		} else if w1, w2, ok := splitOnce(word, '/'); ok {
			if doProcess(w1, it, result) {
				result.WriteString("/ ")
			}
			added = doProcess(w2, it, result)
		} else if w1, w2, ok := splitOnce(word, '-'); ok {
			if hasManyDash(w2) {
				result.WriteString("%DASH")
			} else {
				if doProcess(w1, it, result) {
					result.WriteString("- ")
				}
				added = doProcess(w2, it, result)
			}
		} else if w1, w2, ok := splitOnce(word, '|'); ok {
			if doProcess(w1, it, result) {
				result.WriteString("| ")
			}
			added = doProcess(w2, it, result)
		} else if len(word) >= 32 {
			result.WriteString("%BIG")
		} else if w1, w2, ok := isTwoWords(word); ok {
			if doProcess(w1, it, result) {
				result.WriteByte(' ')
			}
			added = doProcess(w2, it, result)
		} else {
			x := removeNumbers(word)
			switch {
			case isPasswordKey(x):
				it.next()
				result.WriteString(x)
			case len(x) > 3:
				result.WriteString(x)
			default:
				added = false
			}
		}
	}
	return added
}

func splitOnce(s string, sep byte) (string, string, bool) {
	idx := strings.IndexByte(s, sep)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

// Process is the tokenizer entry point: it maps a raw log line to a
// canonical token string.
func Process(line string) string {
	line = strings.TrimSpace(line)

	if globalFilter(line) {
		return "%GL_FILTER"
	}

	var result strings.Builder
	result.Grow(len(line))
	it := &wordIter{words: words(line)}
	for {
		word, ok := it.next()
		if !ok {
			break
		}
		if doProcess(word, it, &result) {
			result.WriteByte(' ')
		}
	}
	return strings.TrimRight(result.String(), " ")
}
