// Package timeago renders the distance between now and a timestamp as a
// human sentence ("em aproximadamente 2 horas"). Countdown texts in chat
// replies are built with it.
package timeago

import (
	"strconv"
	"strings"
	"time"
)

// Locale is the phrase table for one language. Plural phrases contain a
// single %d placeholder for the unit count.
type Locale struct {
	Prefix string
	Suffix string

	Seconds string // under one minute, no count
	Minute  string
	Minutes string
	Hour    string
	Hours   string
	Day     string
	Days    string
	Month   string
	Months  string
	Year    string
	Years   string
}

// PtBR is the Brazilian Portuguese table used by the chat replies.
var PtBR = Locale{
	Seconds: "em menos de um minuto",
	Minute:  "no próximo minuto",
	Minutes: "em %d minutos",
	Hour:    "na próxima hora",
	Hours:   "em aproximadamente %d horas",
	Day:     "em um dia",
	Days:    "em %d dias",
	Month:   "dentro de um mês",
	Months:  "em %d meses",
	Year:    "em um ano",
	Years:   "em %d anos",
}

// Fixed unit lengths in seconds. Months and years are calendar
// approximations on purpose; countdown text does not need to be exact.
const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerMonth  = 2592000
	secondsPerYear   = 31536000
)

type unit struct {
	seconds  int64
	singular func(Locale) string
	plural   func(Locale) string
}

// Largest unit first; the first unit whose whole quotient reaches 1 wins.
var units = []unit{
	{secondsPerYear, func(l Locale) string { return l.Year }, func(l Locale) string { return l.Years }},
	{secondsPerMonth, func(l Locale) string { return l.Month }, func(l Locale) string { return l.Months }},
	{secondsPerDay, func(l Locale) string { return l.Day }, func(l Locale) string { return l.Days }},
	{secondsPerHour, func(l Locale) string { return l.Hour }, func(l Locale) string { return l.Hours }},
	{secondsPerMinute, func(l Locale) string { return l.Minute }, func(l Locale) string { return l.Minutes }},
}

// Formatter renders distances with a fixed locale. The zero value is not
// usable; construct with New.
type Formatter struct {
	locale Locale
	now    func() time.Time
}

// New returns a Formatter for the given locale.
func New(locale Locale) *Formatter {
	return &Formatter{locale: locale, now: time.Now}
}

// InWords describes the distance between now and target. The direction of
// the distance is ignored; phrasing is the locale's concern.
func (f *Formatter) InWords(target time.Time) string {
	seconds := int64(f.now().Sub(target) / time.Second)
	if seconds < 0 {
		seconds = -seconds
	}

	distance := f.locale.Seconds
	for _, u := range units {
		n := seconds / u.seconds
		if n > 1 {
			distance = strings.Replace(u.plural(f.locale), "%d", strconv.FormatInt(n, 10), 1)
			break
		}
		if n == 1 {
			distance = u.singular(f.locale)
			break
		}
	}

	return strings.TrimSpace(f.locale.Prefix + " " + distance + " " + f.locale.Suffix)
}
