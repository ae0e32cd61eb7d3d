package timeline

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Line patterns of the free-text admin notes, tried in this order.
var (
	datedWithNote = regexp.MustCompile(`^\[(.+?)\s*-\s*(.+?)\]:\s*(.+)$`)
	datedOnly     = regexp.MustCompile(`^\[(.+?)\s*-\s*(.+?)\]$`)
	undatedNote   = regexp.MustCompile(`^\[(.+?)\]:\s*(.+)$`)
)

// Date layouts seen in legacy notes (tr-TR locale output and hand-typed dates)
var legacyLayouts = []string{
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// legacyParser reads the single free-text notes field older records carry.
// It produces the same entry shape as the structured audit log.
type legacyParser struct {
	loc *time.Location
}

func newLegacyParser(loc *time.Location) *legacyParser {
	return &legacyParser{loc: loc}
}

// parse turns notes into entries in textual order. Lines without a date inherit the
// previous entry's time; unrecognized lines become admin notes dated at fallback.
func (p *legacyParser) parse(notes string, since, fallback time.Time) []Entry {
	var entries []Entry
	last := since

	for _, raw := range strings.Split(notes, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		var e Entry
		switch {
		case datedWithNote.MatchString(line):
			m := datedWithNote.FindStringSubmatch(line)
			e = p.dated(m[1], m[2], fallback)
			e.Note = strings.TrimSpace(m[3])
		case datedOnly.MatchString(line):
			m := datedOnly.FindStringSubmatch(line)
			e = p.dated(m[1], m[2], fallback)
		case undatedNote.MatchString(line):
			m := undatedNote.FindStringSubmatch(line)
			title := strings.TrimSpace(m[1])
			e = Entry{Title: title, OccurredAt: last, Note: strings.TrimSpace(m[2]), Type: p.classify(title)}
		default:
			e = Entry{Title: titleAdminNote, OccurredAt: fallback, Note: line, Type: TypeNote}
		}

		last = e.OccurredAt
		entries = append(entries, e)
	}

	return entries
}

func (p *legacyParser) dated(title, date string, fallback time.Time) Entry {
	title = strings.TrimSpace(title)
	e := Entry{Title: title, Type: p.classify(title)}
	if t, ok := p.parseDate(strings.TrimSpace(date)); ok {
		e.OccurredAt = t
	} else {
		e.OccurredAt = fallback
		e.DateText = strings.TrimSpace(date)
	}
	return e
}

func (p *legacyParser) parseDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(s, ",", "")
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// classify types a legacy title by keyword, case-insensitively under Turkish casing rules
func (p *legacyParser) classify(title string) Type {
	// Casers are stateful, one per call
	t := cases.Lower(language.Turkish).String(title)
	switch {
	case strings.Contains(t, "gönderildi"), strings.Contains(t, "istek"):
		return TypeSent
	case strings.Contains(t, "onay"):
		return TypeApproved
	case strings.Contains(t, "red"):
		return TypeRejected
	case strings.Contains(t, "yayın"):
		return TypeLive
	case strings.Contains(t, "tamamlandı"):
		return TypeCompleted
	default:
		return TypeNote
	}
}
