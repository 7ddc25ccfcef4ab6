package calendar

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed holidays_fr.yaml
var defaultHolidaysYAML []byte

// Holiday is one dated entry of a HolidayCalendar.
type Holiday struct {
	Date  Date   `yaml:"-"`
	Label string `yaml:"label"`
}

// HolidayCalendar is a finite, versioned list of non-billable dates.
// Years without entries exclude nothing.
type HolidayCalendar struct {
	Version      string
	Jurisdiction string
	holidays     map[Date]string
}

type holidayFile struct {
	Version      string `yaml:"version"`
	Jurisdiction string `yaml:"jurisdiction"`
	Holidays     []struct {
		Date  string `yaml:"date"`
		Label string `yaml:"label"`
	} `yaml:"holidays"`
}

// NewHolidayCalendar builds a calendar from explicit entries.
func NewHolidayCalendar(version, jurisdiction string, holidays ...Holiday) *HolidayCalendar {
	c := &HolidayCalendar{
		Version:      version,
		Jurisdiction: jurisdiction,
		holidays:     make(map[Date]string, len(holidays)),
	}
	for _, h := range holidays {
		c.holidays[h.Date] = h.Label
	}
	return c
}

// LoadHolidayCalendar parses a YAML holiday table.
func LoadHolidayCalendar(r io.Reader) (*HolidayCalendar, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read holiday calendar: %w", err)
	}
	return parseHolidayCalendar(data)
}

// LoadHolidayCalendarFile reads a YAML holiday table from disk.
func LoadHolidayCalendarFile(path string) (*HolidayCalendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open holiday calendar: %w", err)
	}
	defer f.Close()
	return LoadHolidayCalendar(f)
}

// DefaultHolidayCalendar returns the embedded French public-holiday table.
func DefaultHolidayCalendar() *HolidayCalendar {
	c, err := parseHolidayCalendar(defaultHolidaysYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded holiday calendar is invalid: %v", err))
	}
	return c
}

func parseHolidayCalendar(data []byte) (*HolidayCalendar, error) {
	var file holidayFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse holiday calendar: %w", err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("holiday calendar version is required")
	}

	entries := make([]Holiday, 0, len(file.Holidays))
	for _, h := range file.Holidays {
		d, err := ParseISO(h.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday %q: %w", h.Label, err)
		}
		entries = append(entries, Holiday{Date: d, Label: h.Label})
	}
	return NewHolidayCalendar(file.Version, file.Jurisdiction, entries...), nil
}

func (c *HolidayCalendar) IsHoliday(d Date) bool {
	if c == nil {
		return false
	}
	_, ok := c.holidays[d]
	return ok
}

// Label returns the holiday name, or "" when d is not a holiday.
func (c *HolidayCalendar) Label(d Date) string {
	if c == nil {
		return ""
	}
	return c.holidays[d]
}

// Holidays returns all entries sorted by date.
func (c *HolidayCalendar) Holidays() []Holiday {
	if c == nil {
		return nil
	}
	out := make([]Holiday, 0, len(c.holidays))
	for d, label := range c.holidays {
		out = append(out, Holiday{Date: d, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// weekdayHolidaysIn counts holidays falling on a weekday in [start, end).
func (c *HolidayCalendar) weekdayHolidaysIn(start, end Date) int {
	if c == nil {
		return 0
	}
	n := 0
	for d := range c.holidays {
		if d.Before(start) || !d.Before(end) {
			continue
		}
		if isWeekday(d) {
			n++
		}
	}
	return n
}
