package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Delimiter separates the four fields of a serialized vehicle.
	Delimiter = "|"
	// DefaultDate is used by NewVehicleWithDefaultDate.
	DefaultDate = "2020-01-01"

	fieldCount = 4
)

var platePattern = regexp.MustCompile(`^[0-9]{2}-[A-Z]{2}-[0-9]{2}$`)

// Vehicle is one catalog entry. The zero value is not a valid vehicle; use
// NewVehicle or ParseLine.
type Vehicle struct {
	plate string
	make  string
	model string
	date  string
}

// NewVehicle validates plate, make, model and date in that order and fails
// on the first field that does not match its format.
func NewVehicle(plate, brand, model, date string) (Vehicle, error) {
	if !ValidatePlate(plate) {
		return Vehicle{}, invalidAttribute("plate", plate, "expected DD-LL-DD")
	}
	if !ValidateMakeOrModel(brand) {
		return Vehicle{}, invalidAttribute("make", brand, "expected one or more alphanumeric words")
	}
	if !ValidateMakeOrModel(model) {
		return Vehicle{}, invalidAttribute("model", model, "expected one or more alphanumeric words")
	}
	if !ValidateDate(date) {
		return Vehicle{}, invalidAttribute("date", date, "expected YYYY-MM-DD")
	}

	return Vehicle{
		plate: plate,
		make:  brand,
		model: model,
		date:  date,
	}, nil
}

func NewVehicleWithDefaultDate(plate, brand, model string) (Vehicle, error) {
	return NewVehicle(plate, brand, model, DefaultDate)
}

// ParseLine builds a vehicle from a plate|make|model|date line.
//
// Fields are not unescaped: a make or model containing the delimiter will
// not survive a Line/ParseLine round trip.
func ParseLine(line string) (Vehicle, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != fieldCount {
		return Vehicle{}, invalidAttribute("line", line,
			fmt.Sprintf("expected %d fields, got %d", fieldCount, len(fields)))
	}
	return NewVehicle(fields[0], fields[1], fields[2], fields[3])
}

// Line is the inverse of ParseLine.
func (v Vehicle) Line() string {
	return strings.Join([]string{v.plate, v.make, v.model, v.date}, Delimiter)
}

func (v Vehicle) Plate() string { return v.plate }

func (v Vehicle) Make() string { return v.make }

func (v Vehicle) Model() string { return v.model }

func (v Vehicle) Date() string { return v.date }

// SetDate replaces the registration date. The vehicle is left untouched when
// date is not valid.
func (v *Vehicle) SetDate(date string) error {
	if !ValidateDate(date) {
		return invalidAttribute("date", date, "expected YYYY-MM-DD")
	}
	v.date = date
	return nil
}

// RegistrationYear returns the year segment of the date.
func (v Vehicle) RegistrationYear() int {
	year, _, _ := strings.Cut(v.date, "-")
	// Construction guarantees four digits.
	n, _ := strconv.Atoi(year)
	return n
}

func (v Vehicle) String() string {
	return fmt.Sprintf("Plate -> %s | Make/Model -> %s/%s", v.plate, v.make, v.model)
}

func ValidatePlate(s string) bool {
	return platePattern.MatchString(s)
}

// ValidateMakeOrModel accepts one or more whitespace separated words made of
// ASCII letters and digits.
func ValidateMakeOrModel(s string) bool {
	words := strings.Fields(s)
	for _, w := range words {
		if !isAlnum(w) {
			return false
		}
	}
	return len(words) > 0
}

// ValidateDate checks the YYYY-MM-DD shape only. Month and day ranges are not
// checked, so 2023-13-40 is accepted.
func ValidateDate(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	year, month, day := parts[0], parts[1], parts[2]

	return len(year) == 4 && isDigits(year) &&
		len(month) == 2 && isDigits(month) &&
		len(day) == 2 && isDigits(day)
}

func isAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
