package catalog

import (
	"bufio"
	"io"
	"iter"
	"math"
	"slices"
	"strings"
)

// Collection is an insertion-ordered set of vehicles with unique plates.
// It is not safe for concurrent use.
type Collection struct {
	vehicles []Vehicle
}

func NewCollection() *Collection {
	return &Collection{}
}

// LoadFromText reads one vehicle per line. Blank lines and lines starting
// with "##" or "//" are skipped. The markers must be the first characters of
// the line: an indented "  ## note" is parsed as a record and fails. The first malformed or duplicate line aborts
// the load and is reported as a *LineError.
func LoadFromText(r io.Reader) (*Collection, error) {
	c := NewCollection()

	// Make and model have no length limit, so neither may a line.
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if isSkippable(line) {
			continue
		}

		v, err := ParseLine(line)
		if err != nil {
			return nil, &LineError{Line: lineNo, Err: err}
		}
		if err := c.Add(v); err != nil {
			return nil, &LineError{Line: lineNo, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return c, nil
}

func ParseText(text string) (*Collection, error) {
	return LoadFromText(strings.NewReader(text))
}

func isSkippable(line string) bool {
	if strings.TrimSpace(line) == "" {
		return true
	}
	return strings.HasPrefix(line, "##") || strings.HasPrefix(line, "//")
}

// SaveToText serializes every vehicle on its own line. There is no newline
// after the last vehicle.
func (c *Collection) SaveToText() string {
	lines := make([]string, len(c.vehicles))
	for i, v := range c.vehicles {
		lines[i] = v.Line()
	}
	return strings.Join(lines, "\n")
}

func (c *Collection) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, c.SaveToText())
	return int64(n), err
}

func (c *Collection) FindByPlate(plate string) (Vehicle, bool) {
	for _, v := range c.vehicles {
		if v.plate == plate {
			return v, true
		}
	}
	return Vehicle{}, false
}

// Add appends v unless a vehicle with the same plate is already present.
func (c *Collection) Add(v Vehicle) error {
	if _, ok := c.FindByPlate(v.plate); ok {
		return &DuplicateValueError{Plate: v.plate}
	}
	c.vehicles = append(c.vehicles, v)
	return nil
}

func (c *Collection) Delete(plate string) bool {
	for i, v := range c.vehicles {
		if v.plate == plate {
			c.vehicles = slices.Delete(c.vehicles, i, i+1)
			return true
		}
	}
	return false
}

// SetDate updates the date of the vehicle stored under plate. It reports
// false when the plate is unknown.
func (c *Collection) SetDate(plate, date string) (bool, error) {
	for i := range c.vehicles {
		if c.vehicles[i].plate == plate {
			return true, c.vehicles[i].SetDate(date)
		}
	}
	return false, nil
}

// Filter returns a new collection with the vehicles matching pred, in order.
func (c *Collection) Filter(pred Predicate) *Collection {
	found := NewCollection()
	for _, v := range c.vehicles {
		if pred(v) {
			// Plates are already unique in c.
			_ = found.Add(v)
		}
	}
	return found
}

func (c *Collection) Size() int {
	return len(c.vehicles)
}

func (c *Collection) IsEmpty() bool {
	return len(c.vehicles) == 0
}

// All iterates over the vehicles in insertion order.
func (c *Collection) All() iter.Seq[Vehicle] {
	return func(yield func(Vehicle) bool) {
		for _, v := range c.vehicles {
			if !yield(v) {
				return
			}
		}
	}
}

// Vehicles returns a copy of the vehicles in insertion order.
func (c *Collection) Vehicles() []Vehicle {
	return slices.Clone(c.vehicles)
}
