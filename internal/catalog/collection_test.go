package catalog

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromTextSkipsCommentsAndBlankLines(t *testing.T) {
	text := "12-AB-34|VW|GOLF|2022-01-01\n## comment\n\n34-CD-56|FIAT|PUNTO|2021-06-15"

	c, err := ParseText(text)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Size())

	plates := platesOf(c)
	assert.Equal(t, []string{"12-AB-34", "34-CD-56"}, plates)
}

func TestLoadFromTextCommentStyles(t *testing.T) {
	text := strings.Join([]string{
		"// header",
		"##12-AB-34|VW|GOLF|2022-01-01",
		"   ",
		"\t",
		"12-AB-34|VW|GOLF|2022-01-01",
		"",
	}, "\r\n")

	c, err := ParseText(text)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Size())
}

func TestLoadFromTextIndentedCommentIsNotSkipped(t *testing.T) {
	text := "12-AB-34|VW|GOLF|2022-01-01\n  ## indented note\n34-CD-56|FIAT|PUNTO|2021-06-15"

	_, err := ParseText(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAttribute)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 2, le.Line)
}

func TestLoadFromTextLongLineRoundTrips(t *testing.T) {
	longMake := strings.TrimSpace(strings.Repeat("AB ", 30000))
	v := mustVehicle(t, "12-AB-34", longMake, "GOLF", "2022-01-01")
	require.Greater(t, len(v.Line()), 64*1024)

	c := NewCollection()
	require.NoError(t, c.Add(v))
	require.NoError(t, c.Add(mustVehicle(t, "34-CD-56", "FIAT", "PUNTO", "2021-06-15")))

	reloaded, err := ParseText(c.SaveToText())
	require.NoError(t, err)
	assert.Equal(t, c.Vehicles(), reloaded.Vehicles())
	assert.Equal(t, longMake, reloaded.Vehicles()[0].Make())
}

func TestLoadFromTextFailsFast(t *testing.T) {
	text := "12-AB-34|VW|GOLF|2022-01-01\nnot a vehicle\n34-CD-56|FIAT|PUNTO|2021-06-15"

	c, err := ParseText(text)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrInvalidAttribute)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 2, le.Line)
}

func TestLoadFromTextRejectsDuplicatePlate(t *testing.T) {
	text := "12-AB-34|VW|GOLF|2022-01-01\n\n12-AB-34|FIAT|PUNTO|2021-06-15"

	_, err := ParseText(text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateValue)

	var le *LineError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, 3, le.Line)
}

func TestLoadFromTextEmpty(t *testing.T) {
	c, err := ParseText("")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "", c.SaveToText())
}

func TestSaveToText(t *testing.T) {
	c := NewCollection()
	require.NoError(t, c.Add(mustVehicle(t, "12-AB-34", "VW", "GOLF", "2022-01-01")))
	require.NoError(t, c.Add(mustVehicle(t, "34-CD-56", "FIAT", "PUNTO", "2021-06-15")))

	text := c.SaveToText()
	assert.Equal(t, "12-AB-34|VW|GOLF|2022-01-01\n34-CD-56|FIAT|PUNTO|2021-06-15", text)
	assert.False(t, strings.HasSuffix(text, "\n"))

	var sb strings.Builder
	n, err := c.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(len(text)), n)
	assert.Equal(t, text, sb.String())

	reloaded, err := ParseText(text)
	require.NoError(t, err)
	assert.Equal(t, c.Vehicles(), reloaded.Vehicles())
}

func TestAddRejectsDuplicatePlate(t *testing.T) {
	c := NewCollection()
	original := mustVehicle(t, "12-AB-34", "VW", "GOLF", "2022-01-01")
	require.NoError(t, c.Add(original))

	err := c.Add(mustVehicle(t, "12-AB-34", "FIAT", "PUNTO", "2021-06-15"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateValue)

	var dve *DuplicateValueError
	require.True(t, errors.As(err, &dve))
	assert.Equal(t, "12-AB-34", dve.Plate)

	assert.Equal(t, 1, c.Size())
	found, ok := c.FindByPlate("12-AB-34")
	require.True(t, ok)
	assert.Equal(t, original, found)
	assert.Equal(t, "VW", found.Make())
}

func TestFindByPlate(t *testing.T) {
	c := sampleCollection(t)

	v, ok := c.FindByPlate("34-CD-56")
	require.True(t, ok)
	assert.Equal(t, "FIAT", v.Make())

	_, ok = c.FindByPlate("99-ZZ-99")
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	c := sampleCollection(t)
	size := c.Size()

	assert.True(t, c.Delete("34-CD-56"))
	assert.Equal(t, size-1, c.Size())
	assert.Equal(t, []string{"12-AB-34", "56-EF-78", "78-GH-90"}, platesOf(c))

	assert.False(t, c.Delete("34-CD-56"))
	assert.Equal(t, size-1, c.Size())

	assert.False(t, c.Delete("not-a-plate"))
	assert.Equal(t, size-1, c.Size())
}

func TestCollectionSetDate(t *testing.T) {
	c := sampleCollection(t)

	found, err := c.SetDate("12-AB-34", "2030-01-02")
	require.NoError(t, err)
	assert.True(t, found)
	v, _ := c.FindByPlate("12-AB-34")
	assert.Equal(t, "2030-01-02", v.Date())

	found, err = c.SetDate("12-AB-34", "bad")
	assert.True(t, found)
	assert.ErrorIs(t, err, ErrInvalidAttribute)
	v, _ = c.FindByPlate("12-AB-34")
	assert.Equal(t, "2030-01-02", v.Date())

	found, err = c.SetDate("99-ZZ-99", "2030-01-02")
	assert.False(t, found)
	assert.NoError(t, err)
}

func TestFilter(t *testing.T) {
	c := sampleCollection(t)

	vw := c.Filter(ByMake("VW"))
	assert.Equal(t, 2, vw.Size())
	assert.Equal(t, []string{"12-AB-34", "56-EF-78"}, platesOf(vw))

	count := 0
	for v := range c.All() {
		if v.Make() == "VW" {
			count++
		}
	}
	assert.Equal(t, count, vw.Size())

	assert.Equal(t, 1, c.Filter(ByPlate("34-CD-56")).Size())
	assert.Equal(t, 1, c.Filter(ByModel("POLO")).Size())
	assert.Equal(t, 2, c.Filter(ByYear(2021)).Size())
	assert.Equal(t, 1, c.Filter(Every(ByMake("VW"), ByYear(2021))).Size())
	assert.Equal(t, c.Size(), c.Filter(Every()).Size())
	assert.True(t, c.Filter(ByMake("vw")).IsEmpty())

	// Filtering never touches the source.
	assert.Equal(t, 4, c.Size())
}

func TestFilterReturnsIndependentCollection(t *testing.T) {
	c := sampleCollection(t)
	found := c.Filter(ByMake("VW"))

	require.True(t, found.Delete("12-AB-34"))
	_, ok := c.FindByPlate("12-AB-34")
	assert.True(t, ok)
}

func TestAllStopsEarly(t *testing.T) {
	c := sampleCollection(t)

	var seen []string
	for v := range c.All() {
		seen = append(seen, v.Plate())
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"12-AB-34", "34-CD-56"}, seen)
}

func TestVehiclesReturnsCopy(t *testing.T) {
	c := sampleCollection(t)
	vs := c.Vehicles()
	vs[0] = Vehicle{}

	v, ok := c.FindByPlate("12-AB-34")
	require.True(t, ok)
	assert.Equal(t, "VW", v.Make())
}

func sampleCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := ParseText(strings.Join([]string{
		"12-AB-34|VW|GOLF|2022-01-01",
		"34-CD-56|FIAT|PUNTO|2021-06-15",
		"56-EF-78|VW|POLO|2021-03-03",
		"78-GH-90|RENAULT|CLIO|2019-11-20",
	}, "\n"))
	require.NoError(t, err)
	return c
}

func platesOf(c *Collection) []string {
	return slices.Collect(func(yield func(string) bool) {
		for v := range c.All() {
			if !yield(v.Plate()) {
				return
			}
		}
	})
}
