package core

// formats.go registers string formats understood by constraint validation,
// in addition to the JSON Schema built-ins (date, date-time, email, ...).
//
//	loose-date  dates as spreadsheets export them: US, EU and ISO layouts,
//	            month names, two-digit years
//	us-state    a US state name or postal abbreviation

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Format names registered with the validator.
const (
	FormatLooseDate = "loose-date"
	FormatUSState   = "us-state"
)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

func init() {
	gojsonschema.FormatCheckers.Add(FormatLooseDate, looseDateChecker{})
	gojsonschema.FormatCheckers.Add(FormatUSState, usStateChecker{})
}

// ParseDate parses s with the loose-date layouts. Four-digit years are
// tried first because they are unambiguous.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}
	return time.Time{}, &Error{Kind: KindConversion, Value: s, Msg: fmt.Sprintf("%q is not a recognized date", s)}
}

type looseDateChecker struct{}

func (looseDateChecker) IsFormat(input any) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	_, err := ParseDate(s)
	return err == nil
}

// usStates maps US state full names to their abbreviations.
var usStates = map[string]string{
	"alabama":        "AL",
	"alaska":         "AK",
	"arizona":        "AZ",
	"arkansas":       "AR",
	"california":     "CA",
	"colorado":       "CO",
	"connecticut":    "CT",
	"delaware":       "DE",
	"florida":        "FL",
	"georgia":        "GA",
	"hawaii":         "HI",
	"idaho":          "ID",
	"illinois":       "IL",
	"indiana":        "IN",
	"iowa":           "IA",
	"kansas":         "KS",
	"kentucky":       "KY",
	"louisiana":      "LA",
	"maine":          "ME",
	"maryland":       "MD",
	"massachusetts":  "MA",
	"michigan":       "MI",
	"minnesota":      "MN",
	"mississippi":    "MS",
	"missouri":       "MO",
	"montana":        "MT",
	"nebraska":       "NE",
	"nevada":         "NV",
	"new hampshire":  "NH",
	"new jersey":     "NJ",
	"new mexico":     "NM",
	"new york":       "NY",
	"north carolina": "NC",
	"north dakota":   "ND",
	"ohio":           "OH",
	"oklahoma":       "OK",
	"oregon":         "OR",
	"pennsylvania":   "PA",
	"rhode island":   "RI",
	"south carolina": "SC",
	"south dakota":   "SD",
	"tennessee":      "TN",
	"texas":          "TX",
	"utah":           "UT",
	"vermont":        "VT",
	"virginia":       "VA",
	"washington":     "WA",
	"west virginia":  "WV",
	"wisconsin":      "WI",
	"wyoming":        "WY",
}

// NormalizeUSState converts a US state name to its 2-letter abbreviation.
// It reports false when s is neither a name nor an abbreviation.
func NormalizeUSState(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if code, ok := usStates[strings.ToLower(s)]; ok {
		return code, true
	}
	upper := strings.ToUpper(s)
	for _, code := range usStates {
		if upper == code {
			return code, true
		}
	}
	return s, false
}

type usStateChecker struct{}

func (usStateChecker) IsFormat(input any) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	_, ok = NormalizeUSState(s)
	return ok
}
