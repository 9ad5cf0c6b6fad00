package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVehicle(t *testing.T) {
	v, err := NewVehicle("12-AB-34", "TOYOTA", "COROLLA", "2023-05-10")
	require.NoError(t, err)

	assert.Equal(t, "12-AB-34", v.Plate())
	assert.Equal(t, "TOYOTA", v.Make())
	assert.Equal(t, "COROLLA", v.Model())
	assert.Equal(t, "2023-05-10", v.Date())
	assert.Equal(t, 2023, v.RegistrationYear())
}

func TestNewVehicleWithDefaultDate(t *testing.T) {
	v, err := NewVehicleWithDefaultDate("12-AB-34", "VW", "GOLF")
	require.NoError(t, err)
	assert.Equal(t, DefaultDate, v.Date())
	assert.Equal(t, 2020, v.RegistrationYear())
}

func TestNewVehicleReportsFirstInvalidField(t *testing.T) {
	cases := []struct {
		name                      string
		plate, brand, model, date string
		field                     string
	}{
		{"bad plate", "1A-AB-34", "VW", "GOLF", "2022-01-01", "plate"},
		{"bad plate wins over bad make", "1A-AB-34", "", "GOLF", "2022-01-01", "plate"},
		{"bad make", "12-AB-34", "Ford-Ka", "GOLF", "2022-01-01", "make"},
		{"bad make wins over bad model", "12-AB-34", "", "", "2022-01-01", "make"},
		{"bad model", "12-AB-34", "VW", "", "2022-01-01", "model"},
		{"bad date", "12-AB-34", "VW", "GOLF", "2022/01/01", "date"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewVehicle(tc.plate, tc.brand, tc.model, tc.date)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAttribute)

			var iae *InvalidAttributeError
			require.True(t, errors.As(err, &iae))
			assert.Equal(t, tc.field, iae.Field)
		})
	}
}

func TestValidatePlate(t *testing.T) {
	valid := []string{"12-AB-34", "00-ZZ-99", "99-AA-00"}
	for _, p := range valid {
		assert.True(t, ValidatePlate(p), p)
	}

	invalid := []string{
		"",
		"12AB34",
		"12-ab-34",
		"1A-AB-34",
		"123-AB-34",
		"12-ABC-34",
		"12-AB-3",
		" 12-AB-34",
		"12-AB-34 ",
		"12-AB-34\n",
	}
	for _, p := range invalid {
		assert.False(t, ValidatePlate(p), p)
	}
}

func TestValidateMakeOrModel(t *testing.T) {
	valid := []string{"VW", "Mercedes Benz", "  LAND   ROVER ", "A4", "500"}
	for _, s := range valid {
		assert.True(t, ValidateMakeOrModel(s), s)
	}

	invalid := []string{"", "   ", "Ford-Ka", "Citroën", "C3 Aircross!", "a|b"}
	for _, s := range invalid {
		assert.False(t, ValidateMakeOrModel(s), s)
	}
}

func TestValidateDate(t *testing.T) {
	valid := []string{"2023-05-10", "2023-13-40", "0000-00-00", "9999-99-99"}
	for _, s := range valid {
		assert.True(t, ValidateDate(s), s)
	}

	invalid := []string{"", "2023-5-10", "23-05-10", "2023-05", "2023-05-10-01", "2023-0a-10", "2023/05/10", "+023-05-10"}
	for _, s := range invalid {
		assert.False(t, ValidateDate(s), s)
	}
}

func TestParseLine(t *testing.T) {
	v, err := ParseLine("12-AB-34|TOYOTA|COROLLA|2023-05-10")
	require.NoError(t, err)
	assert.Equal(t, "12-AB-34", v.Plate())
	assert.Equal(t, "2023-05-10", v.Date())

	_, err = ParseLine("12-AB-34|TOYOTA|COROLLA")
	require.Error(t, err)
	var iae *InvalidAttributeError
	require.True(t, errors.As(err, &iae))
	assert.Equal(t, "line", iae.Field)

	_, err = ParseLine("12-AB-34|TOYOTA|COROLLA|2023-05-10|extra")
	assert.ErrorIs(t, err, ErrInvalidAttribute)

	_, err = ParseLine("12-AB-34|TOYOTA|COROLLA|10-05-2023")
	assert.ErrorIs(t, err, ErrInvalidAttribute)
}

func TestLineRoundTrip(t *testing.T) {
	vehicles := []Vehicle{
		mustVehicle(t, "12-AB-34", "TOYOTA", "COROLLA", "2023-05-10"),
		mustVehicle(t, "34-CD-56", "Mercedes Benz", "C 200", "2019-12-31"),
		mustVehicle(t, "00-ZZ-00", "x", "y", "2023-13-40"),
	}

	for _, v := range vehicles {
		line := v.Line()
		parsed, err := ParseLine(line)
		require.NoError(t, err, line)
		assert.Equal(t, v, parsed)
	}
}

func TestSetDate(t *testing.T) {
	v := mustVehicle(t, "12-AB-34", "VW", "GOLF", "2022-01-01")

	require.NoError(t, v.SetDate("2024-02-29"))
	assert.Equal(t, "2024-02-29", v.Date())
	assert.Equal(t, 2024, v.RegistrationYear())

	err := v.SetDate("yesterday")
	assert.ErrorIs(t, err, ErrInvalidAttribute)
	assert.Equal(t, "2024-02-29", v.Date())
}

func TestVehicleString(t *testing.T) {
	v := mustVehicle(t, "12-AB-34", "VW", "GOLF", "2022-01-01")
	assert.Equal(t, "Plate -> 12-AB-34 | Make/Model -> VW/GOLF", v.String())
}

func mustVehicle(t *testing.T, plate, brand, model, date string) Vehicle {
	t.Helper()
	v, err := NewVehicle(plate, brand, model, date)
	require.NoError(t, err)
	return v
}
