package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ATTENDANCE NORMALIZER - check-in/check-out to regular/overtime hours
// =============================================================================

// Daily limits. Treated as constants.
var (
	MaxRegularHours       = decimal.RequireFromString("8.00")
	MaxOvertimeHours      = decimal.RequireFromString("4.00")
	MaxWorkingHoursPerDay = MaxRegularHours.Add(MaxOvertimeHours)
)

// LateArrivalCutoff is the clock time after which a check-in counts as late.
const LateArrivalCutoff = 9 * time.Hour

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// AttendancePeriod is one worked day. CheckOut is nil while the employee is
// still checked in.
type AttendancePeriod struct {
	Date     time.Time
	CheckIn  time.Time
	CheckOut *time.Time
}

// NewAttendancePeriod enforces that a present check-out is strictly after check-in.
func NewAttendancePeriod(date, checkIn time.Time, checkOut *time.Time) (AttendancePeriod, error) {
	if checkIn.IsZero() {
		return AttendancePeriod{}, NewValidationError("check_in", "check-in is required")
	}
	if checkOut != nil {
		if err := ValidateCheckout(checkIn, *checkOut); err != nil {
			return AttendancePeriod{}, err
		}
	}
	return AttendancePeriod{Date: dateOnly(date), CheckIn: checkIn, CheckOut: checkOut}, nil
}

func (a AttendancePeriod) HoursWorked() decimal.Decimal {
	return CalculateHours(&a.CheckIn, a.CheckOut)
}

func (a AttendancePeriod) RegularHours() decimal.Decimal {
	regular, _ := SplitRegularAndOvertime(a.HoursWorked())
	return regular
}

func (a AttendancePeriod) OvertimeHours() decimal.Decimal {
	_, overtime := SplitRegularAndOvertime(a.HoursWorked())
	return overtime
}

// Validate checks the time range and the daily caps.
func (a AttendancePeriod) Validate() error {
	if a.CheckOut != nil {
		if err := ValidateCheckout(a.CheckIn, *a.CheckOut); err != nil {
			return err
		}
	}
	hours := a.HoursWorked()
	if err := ValidateTotalWorkingHours(hours); err != nil {
		return err
	}
	return ValidateOvertimeHours(decimal.Max(hours.Sub(MaxRegularHours), decimal.Zero))
}

// CalculateHours returns the hours between check-in and check-out rounded to
// 2 places, or 0 when either is missing or the range is not positive.
func CalculateHours(checkIn, checkOut *time.Time) decimal.Decimal {
	if checkIn == nil || checkOut == nil || checkIn.IsZero() || checkOut.IsZero() {
		return decimal.Zero
	}
	if !checkOut.After(*checkIn) {
		return decimal.Zero
	}
	elapsed := decimal.NewFromInt(int64(checkOut.Sub(*checkIn)))
	return elapsed.Div(nanosPerHour).Round(2)
}

// SplitRegularAndOvertime caps regular hours at MaxRegularHours and overtime
// at MaxOvertimeHours. Hours beyond both caps are dropped here and rejected
// by ValidateTotalWorkingHours.
func SplitRegularAndOvertime(hoursWorked decimal.Decimal) (regular, overtime decimal.Decimal) {
	regular = decimal.Max(decimal.Min(hoursWorked, MaxRegularHours), decimal.Zero)
	overtime = decimal.Min(decimal.Max(hoursWorked.Sub(MaxRegularHours), decimal.Zero), MaxOvertimeHours)
	return regular, overtime
}

func ValidateTotalWorkingHours(hoursWorked decimal.Decimal) error {
	if hoursWorked.GreaterThan(MaxWorkingHoursPerDay) {
		return NewValidationError("hours_worked", "total working hours %s exceed %s",
			hoursWorked.StringFixed(2), MaxWorkingHoursPerDay.StringFixed(2)).Because(ErrWorkingHoursExceeded)
	}
	return nil
}

func ValidateOvertimeHours(overtime decimal.Decimal) error {
	if overtime.IsNegative() {
		return NewValidationError("overtime_hours", "overtime hours cannot be negative").Because(ErrOvertimeExceeded)
	}
	if overtime.GreaterThan(MaxOvertimeHours) {
		return NewValidationError("overtime_hours", "overtime hours %s exceed %s per day",
			overtime.StringFixed(2), MaxOvertimeHours.StringFixed(2)).Because(ErrOvertimeExceeded)
	}
	return nil
}

// ValidateCheckInNotFuture fails when the check-in date is after today.
func ValidateCheckInNotFuture(checkIn, today time.Time) error {
	if dateOnly(checkIn).After(dateOnly(today)) {
		return NewValidationError("check_in", "check-in %s is in the future", checkIn.Format(dateLayout)).Because(ErrFutureCheckIn)
	}
	return nil
}

func ValidateCheckout(checkIn, checkOut time.Time) error {
	if !checkOut.After(checkIn) {
		return NewValidationError("check_out", "check-out %s is not after check-in %s",
			checkOut.Format(time.RFC3339), checkIn.Format(time.RFC3339)).Because(ErrInvalidTimeRange)
	}
	return nil
}

// IsLateArrival reports a check-in after 09:00 local clock time.
func IsLateArrival(checkIn time.Time) bool {
	h, m, s := checkIn.Clock()
	sinceMidnight := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
	return sinceMidnight > LateArrivalCutoff
}

// =============================================================================
// PERIOD SUMMARY
// =============================================================================

type AttendanceSummary struct {
	Days          int
	LateArrivals  int
	HoursWorked   decimal.Decimal
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal
}

// SummarizeAttendance validates every day and totals the per-day splits.
func SummarizeAttendance(days []AttendancePeriod) (AttendanceSummary, error) {
	s := AttendanceSummary{HoursWorked: decimal.Zero, RegularHours: decimal.Zero, OvertimeHours: decimal.Zero}
	for _, day := range days {
		if err := day.Validate(); err != nil {
			return AttendanceSummary{}, err
		}
		hours := day.HoursWorked()
		regular, overtime := SplitRegularAndOvertime(hours)
		s.Days++
		if IsLateArrival(day.CheckIn) {
			s.LateArrivals++
		}
		s.HoursWorked = s.HoursWorked.Add(hours)
		s.RegularHours = s.RegularHours.Add(regular)
		s.OvertimeHours = s.OvertimeHours.Add(overtime)
	}
	return s, nil
}
