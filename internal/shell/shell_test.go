package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"vehicle-catalog/internal/catalog"
	"vehicle-catalog/internal/store"
	"vehicle-catalog/internal/telemetry"
)

const seed = "12-AB-34|VW|GOLF|2022-01-01\n34-CD-56|FIAT|PUNTO|2021-06-15\n56-EF-78|VW|POLO|2021-03-03"

type harness struct {
	shell    *Shell
	catalog  *catalog.InstrumentedCollection
	store    *store.FileStore
	out      *bytes.Buffer
	recorder *tracetest.SpanRecorder
}

func newHarness(t *testing.T, input string, opts Options) *harness {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := telemetry.NewWithProviders("shell-test",
		sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), nil, nil)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c, err := catalog.ParseText(seed)
	require.NoError(t, err)
	ic, err := catalog.NewInstrumentedCollection(c, tp)
	require.NoError(t, err)

	fs := store.NewFileStore(filepath.Join(t.TempDir(), "vehicles.csv"))
	out := &bytes.Buffer{}

	return &harness{
		shell:    NewShell(ic, fs, tp, strings.NewReader(input), out, opts),
		catalog:  ic,
		store:    fs,
		out:      out,
		recorder: recorder,
	}
}

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestListShowsTable(t *testing.T) {
	h := newHarness(t, script("l", "q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "     PLATE       |         MAKE         |        MODEL         |       DATE      ")
	assert.Contains(t, out, "-----------------+-")
	assert.Contains(t, out, "12-AB-34         | VW                   | GOLF                 |       2022-01-01")
	assert.Contains(t, out, "34-CD-56")
	assert.Contains(t, out, "56-EF-78")
}

func TestSearchByMake(t *testing.T) {
	h := newHarness(t, script("PM", "vw", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "SEARCH BY MAKE")
	assert.Contains(t, out, "12-AB-34")
	assert.Contains(t, out, "56-EF-78")
	assert.NotContains(t, out, "34-CD-56")
}

func TestSearchByPlateAndModel(t *testing.T) {
	h := newHarness(t, script("P", "34-cd-56", "PN", "POLO", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "34-CD-56         | FIAT")
	assert.Contains(t, out, "56-EF-78         | VW                   | POLO")
}

func TestSearchWithoutMatches(t *testing.T) {
	h := newHarness(t, script("PN", "CIVIC", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))
	assert.Contains(t, h.out.String(), "No vehicles found with model CIVIC")
}

func TestAddRepromptsUntilValid(t *testing.T) {
	input := script(
		"A",
		"12-AB-34",   // already present
		"1A-AB-34",   // bad format
		"90-zz-12",   // accepted once upper-cased
		"Ford-Ka",    // bad make
		"ford",       // ok
		"",           // bad model
		"ka plus",    // ok
		"2023/01/01", // bad date
		"2023-13-40", // shape only
		"Q",
	)
	h := newHarness(t, input, Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Plate 12-AB-34 already exists or has an invalid format!")
	assert.Contains(t, out, "Plate 1A-AB-34 already exists or has an invalid format!")
	assert.Contains(t, out, "Invalid make FORD-KA")
	assert.Contains(t, out, "Invalid model ")
	assert.Contains(t, out, "Invalid date 2023/01/01")
	assert.Contains(t, out, "New vehicle added successfully!")

	v, ok := h.catalog.Collection.FindByPlate("90-ZZ-12")
	require.True(t, ok)
	assert.Equal(t, "FORD", v.Make())
	assert.Equal(t, "KA PLUS", v.Model())
	assert.Equal(t, "2023-13-40", v.Date())
	assert.Equal(t, 4, h.catalog.Size())
}

func TestAddAcceptsLongModel(t *testing.T) {
	model := strings.TrimSpace(strings.Repeat("XY ", 30000))
	h := newHarness(t, script("A", "90-ZZ-12", "FORD", model, "2023-01-01", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))
	assert.Contains(t, h.out.String(), "New vehicle added successfully!")

	v, ok := h.catalog.Collection.FindByPlate("90-ZZ-12")
	require.True(t, ok)
	assert.Equal(t, model, v.Model())
}

func TestDelete(t *testing.T) {
	h := newHarness(t, script("D", "bad", "34-CD-56", "D", "34-CD-56", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Plate BAD has an invalid format!")
	assert.Contains(t, out, "Vehicle deleted successfully!")
	assert.Contains(t, out, "Vehicle not found!")
	assert.Equal(t, 2, h.catalog.Size())
}

func TestSaveAndChanges(t *testing.T) {
	h := newHarness(t, script("C", "S", "C", "D", "12-AB-34", "C", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "+ 12-AB-34|VW|GOLF|2022-01-01")
	assert.Contains(t, out, "Saved successfully!")
	assert.Contains(t, out, "No unsaved changes.")
	assert.Contains(t, out, "- 12-AB-34|VW|GOLF|2022-01-01")

	b, err := os.ReadFile(h.store.Path())
	require.NoError(t, err)
	assert.Equal(t, seed, string(b))
}

func TestInvalidOption(t *testing.T) {
	h := newHarness(t, script("X", "", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))
	assert.Contains(t, h.out.String(), "WARNING: invalid option X")
}

func TestEndOfInputEndsSession(t *testing.T) {
	h := newHarness(t, script("A", "99-XX-99"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))
	assert.Equal(t, 3, h.catalog.Size())
}

func TestPauseWaitsForEnter(t *testing.T) {
	h := newHarness(t, script("L", "", "Q"), Options{Pause: true, ClearScreen: true})

	require.NoError(t, h.shell.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Press ENTER to continue...")
	assert.Contains(t, out, clearScreen)
	assert.NotContains(t, out, "WARNING")
}

func TestCancelledContextEndsSession(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	h := newHarness(t, "", Options{})
	h.shell.in = pr

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.shell.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("shell did not stop after cancellation")
	}
}

func TestCommandsAreTraced(t *testing.T) {
	h := newHarness(t, script("L", "PM", "VW", "Q"), Options{})

	require.NoError(t, h.shell.Run(context.Background()))

	var names []string
	for _, s := range h.recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "shell.run")
	assert.Contains(t, names, "shell.list_command")
	assert.Contains(t, names, "shell.search_by_make")
	assert.Contains(t, names, "catalog.filter")
}

func TestCenter(t *testing.T) {
	assert.Equal(t, "  ab  ", center("ab", 6))
	assert.Equal(t, " ab  ", center("ab", 5))
	assert.Equal(t, "abcdef", center("abcdef", 3))
}
