// Package timeparse turns free-text time-of-day expressions from inbound SMS
// into an hour of day. It understands Finnish, Swedish and English keywords
// plus the usual clock notations, and never fails: anything unparseable means
// "send immediately".
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	fillerRe   = regexp.MustCompile(`\b(at|klo|kl|o'?clock)\b`)
	meridiemRe = regexp.MustCompile(`\b(a\.?\s*m\.?|p\.?\s*m\.?)\b`)
	spacesRe   = regexp.MustCompile(`\s+`)

	twelveHourRe = regexp.MustCompile(`\b(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)\b`)
	compactRe    = regexp.MustCompile(`\b(\d{3,4})\b`)
	punctuatedRe = regexp.MustCompile(`\b(\d{1,2})[:.](\d{2})\b`)
	bareHourRe   = regexp.MustCompile(`\b([01]?\d|2[0-3])\b`)
	abbrevRe     = regexp.MustCompile(`\b(\d{1,2})\s*([ap])\b`)
)

// keywordRules map named times of day to hours. Order matters: the specific
// forms ("early morning") must come before the generic ones ("morning").
var keywordRules = []struct {
	re   *regexp.Regexp
	hour int
}{
	{regexp.MustCompile(`\b(midnight|keskiyo|puoliyo|midnatt)\b`), 0},
	{regexp.MustCompile(`\b(noon|midday|keskipaiva|lounas(aika)?|middag|lunch(time|tid)?)\b`), 12},
	{regexp.MustCompile(`\b(dawn|sunrise|auringonnousu|aamunkoitto|gryning)\b`), 5},
	{regexp.MustCompile(`\b(dusk|sunset|iltahamara|auringonlasku|skymning)\b`), 21},
	{regexp.MustCompile(`\bearly\s+morning\b|\baikainen\s+aamu\b|\btidigt?\s+pa\s+morgonen\b`), 6},
	{regexp.MustCompile(`\blate\s+morning\b|\bforenoon\b|\baamupaiva(lla)?\b|\bformiddag(en)?\b`), 10},
	{regexp.MustCompile(`\blate\s+afternoon\b|\bmyohainen\s+iltapaiva\b|\bsen\s+eftermiddag\b`), 16},
	{regexp.MustCompile(`\blate\s+evening\b|\bmyohainen\s+ilta\b|\bsen\s+kvall\b`), 20},
	{regexp.MustCompile(`\b(morning|aamu(lla)?)\b|\bmorgon(en)?\b`), 8},
	{regexp.MustCompile(`\b(afternoon|iltapaiva(lla)?)\b|\beftermiddag(en)?\b`), 15},
	{regexp.MustCompile(`\b(evening|ilta(lla)?)\b|\bkvall(en)?\b`), 19},
	{regexp.MustCompile(`\b(night|yo(lla)?)\b|\bnatt(en)?\b`), 22},
	{regexp.MustCompile(`\b(daytime|paiva(lla)?)\b|\bdagtid\b`), 10},
}

// cardinals are the spelled-out numbers 0-12 in English, Finnish and Swedish,
// diacritics already stripped (ä->a, ö->o, å->a).
var cardinals = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"nolla": 0, "yksi": 1, "kaksi": 2, "kolme": 3, "nelja": 4, "viisi": 5, "kuusi": 6,
	"seitseman": 7, "kahdeksan": 8, "yhdeksan": 9, "kymmenen": 10, "yksitoista": 11, "kaksitoista": 12,
	"noll": 0, "ett": 1, "tva": 2, "tre": 3, "fyra": 4, "fem": 5, "sex": 6,
	"sju": 7, "atta": 8, "nio": 9, "tio": 10, "elva": 11, "tolv": 12,
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]`)

// Parse extracts an hour of day from free text. ok is false when no rule
// matches, which callers treat as the immediate sentinel.
func Parse(text string) (hour int, ok bool) {
	s := normalize(text)
	if s == "" {
		return 0, false
	}

	for _, rule := range keywordRules {
		if rule.re.MatchString(s) {
			return clampHour(rule.hour)
		}
	}

	// 12-hour clock with meridiem, e.g. "7am", "7:30 pm", "11.00pm".
	if m := twelveHourRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minutes := 0
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		if h < 1 || h > 12 || minutes > 59 {
			return 0, false
		}
		return clampHour(meridiemHour(h, m[3] == "am"))
	}

	// Compact clock strings, e.g. "0800", "730".
	if m := compactRe.FindStringSubmatch(s); m != nil {
		num := m[1]
		split := 1
		if len(num) == 4 {
			split = 2
		}
		h, _ := strconv.Atoi(num[:split])
		minutes, _ := strconv.Atoi(num[split:])
		if minutes <= 59 {
			return clampHour(h)
		}
	}

	// Punctuated "HH:MM" / "HH.MM".
	if m := punctuatedRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		if minutes <= 59 {
			return clampHour(h)
		}
	}

	// A single bare hour 0-23.
	if m := bareHourRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		return clampHour(h)
	}

	// Abbreviated "7a" / "7p".
	if m := abbrevRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h >= 1 && h <= 12 {
			return clampHour(meridiemHour(h, m[2] == "a"))
		}
	}

	for _, tok := range strings.Fields(s) {
		if h, found := cardinals[nonAlnumRe.ReplaceAllString(tok, "")]; found {
			return clampHour(h)
		}
	}

	return 0, false
}

func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	s = fillerRe.ReplaceAllString(s, " ")
	s = meridiemRe.ReplaceAllStringFunc(s, func(m string) string {
		if strings.Contains(m, "a") {
			return "am"
		}
		return "pm"
	})
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

func meridiemHour(h int, am bool) int {
	if am {
		if h == 12 {
			return 0
		}
		return h
	}
	if h == 12 {
		return 12
	}
	return h + 12
}

func clampHour(h int) (int, bool) {
	if h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
