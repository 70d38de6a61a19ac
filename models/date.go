package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DatePrecision folgt den Wikidata-Präzisionscodes.
type DatePrecision int

const (
	PrecisionYear  DatePrecision = 9
	PrecisionMonth DatePrecision = 10
	PrecisionDay   DatePrecision = 11
)

// PartialDate ist ein Kalenderdatum, das nur bis zur angegebenen Präzision bekannt ist.
// Negative Jahre stehen für Daten vor unserer Zeitrechnung.
type PartialDate struct {
	Year      int
	Month     int
	Day       int
	Precision DatePrecision
}

// ParseDateLiteral liest ein xsd:dateTime-Literal wie "1828-09-09T00:00:00Z".
// Eine Präzision <= 0 bedeutet Tagesgenauigkeit.
func ParseDateLiteral(s string, precision DatePrecision) (PartialDate, error) {
	raw := s
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(s, "-")
	if len(parts) == 0 || parts[0] == "" {
		return PartialDate{}, fmt.Errorf("invalid date literal %q", raw)
	}
	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return PartialDate{}, fmt.Errorf("invalid date literal %q: %w", raw, err)
		}
		nums[i] = n
	}
	if neg {
		nums[0] = -nums[0]
	}
	if precision <= 0 || precision > PrecisionDay {
		precision = PrecisionDay
	}
	d := PartialDate{Year: nums[0], Precision: precision}
	switch {
	case precision >= PrecisionDay && len(parts) >= 3:
		d.Month, d.Day = nums[1], nums[2]
	case precision >= PrecisionMonth && len(parts) >= 2:
		d.Month = nums[1]
		d.Precision = PrecisionMonth
	default:
		d.Precision = PrecisionYear
	}
	return d, nil
}

func (d PartialDate) String() string {
	year := fmt.Sprintf("%04d", d.Year)
	if d.Year < 0 {
		year = fmt.Sprintf("-%04d", -d.Year)
	}
	switch d.Precision {
	case PrecisionDay:
		return fmt.Sprintf("%s-%02d-%02d", year, d.Month, d.Day)
	case PrecisionMonth:
		return fmt.Sprintf("%s-%02d", year, d.Month)
	default:
		return year
	}
}

func (d PartialDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *PartialDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	precision := PrecisionYear
	switch strings.Count(strings.TrimPrefix(s, "-"), "-") {
	case 1:
		precision = PrecisionMonth
	case 2:
		precision = PrecisionDay
	}
	parsed, err := ParseDateLiteral(s, precision)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
