package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vehicle-catalog/internal/catalog"
	"vehicle-catalog/internal/logging"
	"vehicle-catalog/internal/telemetry"
)

const (
	indentWidth = 3
	clearScreen = "\033[H\033[2J"
)

var errQuit = errors.New("quit")

// Persister saves the catalog and reports unsaved changes.
type Persister interface {
	Save(ctx context.Context, c *catalog.Collection) error
	Diff(ctx context.Context, c *catalog.Collection) (string, error)
}

type Options struct {
	ClearScreen bool
	Pause       bool
}

type Shell struct {
	catalog   *catalog.InstrumentedCollection
	store     Persister
	telemetry *telemetry.Provider
	in        io.Reader
	out       io.Writer
	opts      Options

	lines <-chan string
}

func NewShell(c *catalog.InstrumentedCollection, store Persister, tp *telemetry.Provider, in io.Reader, out io.Writer, opts Options) *Shell {
	return &Shell{
		catalog:   c,
		store:     store,
		telemetry: tp,
		in:        in,
		out:       out,
		opts:      opts,
	}
}

// Run shows the menu until the operator quits, the input ends or ctx is
// cancelled. Only the cancellation is reported as an error. Saving on exit is
// left to the caller.
func (s *Shell) Run(ctx context.Context) error {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	span.AddEvent("shell_started")
	s.lines = readLines(ctx, s.in)

	for {
		s.showMenu()

		option, err := s.ask(ctx, "OPTION> ")
		if err != nil {
			span.AddEvent("shell_ended")
			return endOfSession(err)
		}
		if option == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", option)))

		err = s.processCommand(cmdCtx, option)
		if err != nil && !errors.Is(err, errQuit) && !errors.Is(err, io.EOF) {
			cmdSpan.RecordError(err)
			cmdSpan.SetStatus(codes.Error, err.Error())
		}
		cmdSpan.End()

		if err != nil {
			span.AddEvent("shell_ended")
			return endOfSession(err)
		}
	}
}

func endOfSession(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// readLines feeds r into a channel so that a blocked read never keeps Run
// from noticing a cancelled context.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), math.MaxInt)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func (s *Shell) processCommand(ctx context.Context, option string) error {
	switch option {
	case "L", "LIST":
		return s.handleList(ctx)
	case "P", "PLATE":
		return s.handleSearch(ctx, "plate", catalog.ByPlate)
	case "PM", "MAKE":
		return s.handleSearch(ctx, "make", catalog.ByMake)
	case "PN", "MODEL":
		return s.handleSearch(ctx, "model", catalog.ByModel)
	case "A", "ADD":
		return s.handleAdd(ctx)
	case "D", "DELETE":
		return s.handleDelete(ctx)
	case "S", "SAVE":
		return s.handleSave(ctx)
	case "C", "CHANGES":
		return s.handleChanges(ctx)
	case "Q", "QUIT":
		return errQuit
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", option),
		))
		s.println("")
		s.println(fmt.Sprintf("WARNING: invalid option %s", option))
		return nil
	}
}

func (s *Shell) showMenu() {
	s.clear()
	s.println("")
	s.show("#################################################")
	s.show("#                                               #")
	s.show("#  L  - List catalog                            #")
	s.show("#  P  - Search by plate                         #")
	s.show("#  PM - Search by make                          #")
	s.show("#  PN - Search by model                         #")
	s.show("#  A  - Add vehicle                             #")
	s.show("#  D  - Delete vehicle                          #")
	s.show("#  S  - Save catalog to file                    #")
	s.show("#  C  - Show unsaved changes                    #")
	s.show("#                                               #")
	s.show("#  Q  - Quit                                    #")
	s.show("#                                               #")
	s.show("#################################################")
	s.println("")
}

func (s *Shell) handleList(ctx context.Context) error {
	_, span := s.telemetry.Tracer().Start(ctx, "shell.list_command")
	defer span.End()

	s.clear()
	s.println("")
	span.SetAttributes(attribute.Int("catalog.size", s.catalog.Size()))
	s.showTable(s.catalog.Collection)
	return s.pause(ctx)
}

func (s *Shell) handleSearch(ctx context.Context, field string, by func(string) catalog.Predicate) error {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.search_by_"+field)
	defer span.End()

	s.clear()
	s.println("")
	s.show(fmt.Sprintf("SEARCH BY %s\n", strings.ToUpper(field)))

	value, err := s.ask(ctx, fmt.Sprintf("Enter the %s of the vehicles to search for: ", field))
	if err != nil {
		return err
	}
	s.println("")
	span.SetAttributes(attribute.String("search."+field, value))

	found := s.catalog.Filter(ctx, field, by(value))
	span.SetAttributes(attribute.Int("search.matches", found.Size()))

	if found.IsEmpty() {
		span.AddEvent("no_vehicles_found")
		s.show(fmt.Sprintf("No vehicles found with %s %s", field, value))
	} else {
		s.showTable(found)
	}
	return s.pause(ctx)
}

func (s *Shell) handleAdd(ctx context.Context) error {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.add_command")
	defer span.End()

	s.clear()
	s.println("")
	s.show("**New vehicle**")

	plate, err := s.askUntil(ctx, "Enter plate: ", func(p string) bool {
		if !catalog.ValidatePlate(p) {
			return false
		}
		_, exists := s.catalog.FindByPlate(ctx, p)
		return !exists
	}, "Plate %s already exists or has an invalid format!")
	if err != nil {
		return err
	}

	brand, err := s.askUntil(ctx, "Enter make: ", catalog.ValidateMakeOrModel, "Invalid make %s")
	if err != nil {
		return err
	}

	model, err := s.askUntil(ctx, "Enter model: ", catalog.ValidateMakeOrModel, "Invalid model %s")
	if err != nil {
		return err
	}

	date, err := s.askUntil(ctx, "Enter date (YYYY-MM-DD): ", catalog.ValidateDate, "Invalid date %s")
	if err != nil {
		return err
	}

	v, err := catalog.NewVehicle(plate, brand, model, date)
	if err == nil {
		err = s.catalog.Add(ctx, v)
	}
	if err != nil {
		span.RecordError(err)
		s.println("")
		s.show(fmt.Sprintf("Error: %s", err.Error()))
		return s.pause(ctx)
	}

	span.AddEvent("vehicle_added", trace.WithAttributes(attribute.String("vehicle.plate", plate)))
	logging.Info(ctx, "vehicle added", slog.String("plate", plate))

	s.println("")
	s.show("New vehicle added successfully!\n")
	return s.pause(ctx)
}

func (s *Shell) handleDelete(ctx context.Context) error {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.delete_command")
	defer span.End()

	s.clear()
	s.println("")
	s.showTable(s.catalog.Collection)
	s.println("")
	s.show("**DELETE**")

	plate, err := s.askUntil(ctx, "Enter the plate to delete: ", catalog.ValidatePlate, "Plate %s has an invalid format!")
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("vehicle.plate", plate))

	if s.catalog.Delete(ctx, plate) {
		logging.Info(ctx, "vehicle deleted", slog.String("plate", plate))
		s.show("Vehicle deleted successfully!")
	} else {
		span.AddEvent("vehicle_not_found")
		s.show("Vehicle not found!")
	}
	return s.pause(ctx)
}

func (s *Shell) handleSave(ctx context.Context) error {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.save_command")
	defer span.End()

	if err := s.store.Save(ctx, s.catalog.Collection); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Error(ctx, "save failed", slog.Any("error", err))
		s.show(fmt.Sprintf("Error: %s", err.Error()))
		return s.pause(ctx)
	}

	s.show("Saved successfully!")
	return s.pause(ctx)
}

func (s *Shell) handleChanges(ctx context.Context) error {
	ctx, span := s.telemetry.Tracer().Start(ctx, "shell.changes_command")
	defer span.End()

	s.clear()
	s.println("")

	diff, err := s.store.Diff(ctx, s.catalog.Collection)
	switch {
	case err != nil:
		span.RecordError(err)
		s.show(fmt.Sprintf("Error: %s", err.Error()))
	case diff == "":
		s.show("No unsaved changes.")
	default:
		s.show("Unsaved changes:")
		for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
			s.show(line)
		}
	}
	return s.pause(ctx)
}

// askUntil repeats the question until valid accepts the answer.
func (s *Shell) askUntil(ctx context.Context, question string, valid func(string) bool, complaint string) (string, error) {
	for {
		s.println("")
		answer, err := s.ask(ctx, question)
		if err != nil {
			return "", err
		}
		if valid(answer) {
			return answer, nil
		}
		s.show(fmt.Sprintf(complaint, answer))
	}
}

// ask prompts and returns the trimmed, upper-cased answer.
func (s *Shell) ask(ctx context.Context, question string) (string, error) {
	fmt.Fprintf(s.out, "%s%s", strings.Repeat(" ", indentWidth), question)

	line, err := s.readLine(ctx)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(strings.TrimSpace(line)), nil
}

func (s *Shell) readLine(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		return line, nil
	}
}

func (s *Shell) pause(ctx context.Context) error {
	if !s.opts.Pause {
		return nil
	}
	s.show("Press ENTER to continue...")
	_, err := s.readLine(ctx)
	return err
}

func (s *Shell) clear() {
	if s.opts.ClearScreen {
		fmt.Fprint(s.out, clearScreen)
	}
}

func (s *Shell) show(msg string) {
	fmt.Fprintf(s.out, "%s%s\n", strings.Repeat(" ", indentWidth), msg)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}
