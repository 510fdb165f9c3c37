package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Monthly Frequency = "monthly"
	Weekly  Frequency = "weekly"
	Yearly  Frequency = "yearly"
	Custom  Frequency = "custom"
)

// MaxGenerationDay caps the day-of-month of generated transactions. Every
// month has at least 28 days, so a clamped date is valid year-round.
const MaxGenerationDay = 28

const (
	MinIntervalMonths = 1
	MaxIntervalMonths = 60
)

type (
	TransactionType string

	Frequency string

	// Date is a calendar date with no time component.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		Description string
		Amount      Money
		CategoryID  string
		Date        Date
		Type        TransactionType

		// RuleID and PeriodKey are set only on transactions materialized
		// from a recurring rule. PeriodKey is the year-month of Date and
		// keys the duplicate-generation guard.
		RuleID    string
		PeriodKey string

		CreatedAt time.Time
		UpdatedAt time.Time
	}

	Category struct {
		ID    string
		Name  string
		Color string
		Icon  string
	}

	RecurringRule struct {
		ID             string
		Description    string
		Amount         Money
		CategoryID     string
		Type           TransactionType
		Frequency      Frequency
		StartDate      Date
		EndDate        Date // zero when open-ended
		DayOfMonth     int  // 1-28, 0 when unset; monthly and custom only
		DayOfWeek      int  // 0-6, -1 when unset; weekly only
		IntervalMonths int  // 1-60, custom only
		IsActive       bool

		// LastGenerated is the instant generation last fired for this rule,
		// not the calendar date carried by the generated transaction.
		LastGenerated time.Time

		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Collections is a snapshot of the three synchronized entity sets.
	Collections struct {
		Transactions []Transaction
		Categories   []Category
		Rules        []RecurringRule
	}
)

var (
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidFrequency  = errors.New("invalid frequency")
	ErrInvalidDayOfMonth = errors.New("day of month must be between 1 and 28")
	ErrInvalidDayOfWeek  = errors.New("day of week must be between 0 and 6")
	ErrInvalidInterval   = errors.New("interval months must be between 1 and 60")
	ErrEndBeforeStart    = errors.New("end date must not be before start date")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a yyyy-mm-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// PeriodKey returns the year-month key (yyyy-mm) of the date.
func (d Date) PeriodKey() string {
	return d.Format("2006-01")
}

func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Timestamp formats an instant the way sync timestamps travel on the wire:
// RFC3339 in UTC, so lexicographic order equals chronological order.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (tt TransactionType) Validate() error {
	switch tt {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Type.Validate()
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

func (r RecurringRule) Validate() error {
	if r.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return ErrEndBeforeStart
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	switch r.Frequency {
	case Monthly:
		if r.DayOfMonth != 0 && (r.DayOfMonth < 1 || r.DayOfMonth > MaxGenerationDay) {
			return ErrInvalidDayOfMonth
		}
	case Weekly:
		if r.DayOfWeek < -1 || r.DayOfWeek > 6 {
			return ErrInvalidDayOfWeek
		}
	case Yearly:
		// Start date carries the target month and day.
	case Custom:
		if r.IntervalMonths < MinIntervalMonths || r.IntervalMonths > MaxIntervalMonths {
			return ErrInvalidInterval
		}
		if r.DayOfMonth != 0 && (r.DayOfMonth < 1 || r.DayOfMonth > MaxGenerationDay) {
			return ErrInvalidDayOfMonth
		}
	default:
		return ErrInvalidFrequency
	}
	return nil
}
