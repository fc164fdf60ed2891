package query

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Amount expressions. The currency marker (rs / inr / the rupee sign) is
// optional and the number may carry thousands separators.
var (
	reAmountBetween = regexp.MustCompile(`(?i)\bbetween\s+(?:rs\.?\s*|inr\s*|₹\s*)?(\d[\d,]*(?:\.\d+)?)\s+(?:and|to|aur)\s+(?:rs\.?\s*|inr\s*|₹\s*)?(\d[\d,]*(?:\.\d+)?)`)
	reAmountMin     = regexp.MustCompile(`(?i)\b(?:above|over|more than|greater than|at least|exceeding)\s+(?:rs\.?\s*|inr\s*|₹\s*)?(\d[\d,]*(?:\.\d+)?)`)
	// "within" is not a cap word: "within 7 days" is duration phrasing.
	reAmountMax = regexp.MustCompile(`(?i)\b(?:below|under|less than|at most|up\s?to)\s+(?:rs\.?\s*|inr\s*|₹\s*)?(\d[\d,]*(?:\.\d+)?)`)

	// Hinglish postfix comparators: "500 se zyada", "2000 se kam".
	reAmountMinHi = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(?:rs\.?|rupaye|rupees)?\s*se\s+(?:zyada|jyada|adhik|upar)\b`)
	reAmountMaxHi = regexp.MustCompile(`(?i)\b(\d[\d,]*(?:\.\d+)?)\s*(?:rs\.?|rupaye|rupees)?\s*se\s+(?:kam|neeche)\b`)
)

// Date expressions.
var (
	reLastNDays   = regexp.MustCompile(`(?i)\b(?:last|past|pichhle|pichle)\s+(\d{1,3})\s+days?\b`)
	reExplicitISO = regexp.MustCompile(`(?i)\bfrom\s+(\d{4}-\d{2}-\d{2})\s+to\s+(\d{4}-\d{2}-\d{2})\b`)
	reMonthName   = regexp.MustCompile(`(?i)\b(?:in|during|for)\s+(january|february|march|april|may|june|july|august|september|october|november|december)\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// Tag vocabularies. Each entry maps a word-boundary pattern over the
// question to a canonical tag; the tables are data, so adding a language or
// a payment rail is a row, not a branch.
type tagPattern struct {
	re  *regexp.Regexp
	tag string
}

func tagPatterns(rows map[string][]string) []tagPattern {
	var patterns []tagPattern
	var tags []string
	for tag := range rows {
		tags = append(tags, tag)
	}
	// map order is random; fix evaluation order for deterministic output
	sort.Strings(tags)
	for _, tag := range tags {
		words := make([]string, len(rows[tag]))
		for i, w := range rows[tag] {
			// RE2 \b is ASCII-only; wrap only Latin-script words with it
			if isASCII(w) {
				words[i] = `\b(?:` + w + `)\b`
			} else {
				words[i] = w
			}
		}
		patterns = append(patterns, tagPattern{
			re:  regexp.MustCompile(`(?i)` + strings.Join(words, "|")),
			tag: tag,
		})
	}
	return patterns
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

var typePatterns = tagPatterns(map[string][]string{
	// "spend"/"spent" stay out of this list: totals like "total spend"
	// must cover credits too.
	"DEBIT":  {"debits?", "debited", "expenses?", "kharcha", "kharche", "खर्च", "खर्चा"},
	"CREDIT": {"credits?", "credited", "received", "income", "refunds?", "earnings?"},
})

var modePatterns = tagPatterns(map[string][]string{
	"UPI":        {"upi", "gpay", "google pay", "phonepe", "paytm"},
	"CARD":       {"cards?"},
	"NETBANKING": {"netbanking", "net banking"},
	"WALLET":     {"wallets?"},
	"CASH":       {"cash"},
	"NEFT":       {"neft"},
	"IMPS":       {"imps"},
	"RTGS":       {"rtgs"},
	"TRANSFER":   {"transfers?", "transferred"},
})

var reQuoted = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// "credit card" / "debit card" name a payment mode, not a transaction type;
// collapse them before the type vocabulary runs.
var cardPhrase = strings.NewReplacer("credit card", "card", "debit card", "card")

// ExtractFilters parses a free-text question into a FilterSet. It is pure
// and never fails: unrecognized phrasing, including non-Latin-script text,
// simply leaves the corresponding predicate unset.
func ExtractFilters(question string) FilterSet {
	return extractFiltersAt(question, time.Now())
}

func extractFiltersAt(question string, now time.Time) FilterSet {
	var f FilterSet
	q := cardPhrase.Replace(strings.ToLower(question))

	extractAmounts(q, &f)
	extractDates(q, now, &f)

	for _, p := range typePatterns {
		if p.re.MatchString(q) {
			f.Types = append(f.Types, p.tag)
		}
	}
	for _, p := range modePatterns {
		if p.re.MatchString(q) {
			f.Modes = append(f.Modes, p.tag)
		}
	}
	for _, m := range reQuoted.FindAllStringSubmatch(q, -1) {
		phrase := m[1]
		if phrase == "" {
			phrase = m[2]
		}
		f.Keywords = append(f.Keywords, phrase)
	}
	return f
}

func extractAmounts(q string, f *FilterSet) {
	if m := reAmountBetween.FindStringSubmatch(q); m != nil {
		lo, loErr := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
		hi, hiErr := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
		if loErr == nil && hiErr == nil {
			if lo.GreaterThan(hi) {
				lo, hi = hi, lo
			}
			f.MinAmount = &lo
			f.MaxAmount = &hi
			return
		}
	}
	for _, re := range []*regexp.Regexp{reAmountMin, reAmountMinHi} {
		if f.MinAmount != nil {
			break
		}
		if m := re.FindStringSubmatch(q); m != nil {
			if d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
				f.MinAmount = &d
			}
		}
	}
	for _, re := range []*regexp.Regexp{reAmountMax, reAmountMaxHi} {
		if f.MaxAmount != nil {
			break
		}
		if m := re.FindStringSubmatch(q); m != nil {
			if d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "")); err == nil {
				f.MaxAmount = &d
			}
		}
	}
}

func extractDates(q string, now time.Time, f *FilterSet) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	setRange := func(start, end time.Time) {
		f.StartDate = &start
		f.EndDate = &end
	}

	if m := reExplicitISO.FindStringSubmatch(q); m != nil {
		start, errS := time.Parse("2006-01-02", m[1])
		end, errE := time.Parse("2006-01-02", m[2])
		if errS == nil && errE == nil {
			setRange(start, end.AddDate(0, 0, 1).Add(-time.Nanosecond))
			return
		}
	}
	if m := reLastNDays.FindStringSubmatch(q); m != nil {
		n := 0
		for _, c := range m[1] {
			n = n*10 + int(c-'0')
		}
		setRange(day.AddDate(0, 0, -n), now)
		return
	}

	switch {
	case strings.Contains(q, "today") || strings.Contains(q, "aaj"):
		setRange(day, day.AddDate(0, 0, 1).Add(-time.Nanosecond))
	case strings.Contains(q, "yesterday") || strings.Contains(q, "kal"):
		setRange(day.AddDate(0, 0, -1), day.Add(-time.Nanosecond))
	case strings.Contains(q, "last week") || strings.Contains(q, "pichhle hafte") || strings.Contains(q, "pichle hafte"):
		setRange(day.AddDate(0, 0, -7), now)
	case strings.Contains(q, "last month") || strings.Contains(q, "pichhle mahine") || strings.Contains(q, "pichle mahine"):
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		setRange(firstOfThis.AddDate(0, -1, 0), firstOfThis.Add(-time.Nanosecond))
	case strings.Contains(q, "this month") || strings.Contains(q, "is mahine"):
		setRange(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now)
	case strings.Contains(q, "last year"):
		setRange(
			time.Date(now.Year()-1, time.January, 1, 0, 0, 0, 0, now.Location()),
			time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond),
		)
	case strings.Contains(q, "this year"):
		setRange(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), now)
	default:
		if m := reMonthName.FindStringSubmatch(q); m != nil {
			month := monthsByName[strings.ToLower(m[1])]
			year := now.Year()
			if month > now.Month() {
				year--
			}
			start := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
			setRange(start, start.AddDate(0, 1, 0).Add(-time.Nanosecond))
		}
	}
}
