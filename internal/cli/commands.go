package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"vehicle-catalog/internal/catalog"
	"vehicle-catalog/internal/logging"
	"vehicle-catalog/internal/server"
	"vehicle-catalog/internal/shell"
)

func shellCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive menu over the catalog (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd, opts)
		},
	}
}

func runShell(cmd *cobra.Command, opts *options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	sh := shell.NewShell(a.catalog, a.store, a.telemetry, cmd.InOrStdin(), cmd.OutOrStdout(), shell.Options{
		ClearScreen: a.cfg.Shell.ClearScreen,
		Pause:       a.cfg.Shell.Pause,
	})

	runErr := sh.Run(ctx)
	if !exitedNormally(runErr) {
		logging.Error(ctx, "shell stopped", slog.Any("error", runErr))
	}

	var saveErr error
	if a.cfg.SaveOnExit {
		saveErr = a.save(ctx)
	}
	if exitedNormally(runErr) {
		runErr = nil
	}
	return errors.Join(runErr, saveErr)
}

func serveCmd(opts *options) *cobra.Command {
	var port string

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			if port != "" {
				a.cfg.Server.Port = port
			}

			handler := server.NewHandler(a.catalog, a.store, a.telemetry.ServiceName())
			srv := server.NewServer(a.cfg.Server, handler, a.telemetry.Tracer())

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- srv.Start()
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", a.store.Path(), srv.GetAddress())

			select {
			case err = <-serverErr:
				if !errors.Is(err, http.ErrServerClosed) {
					// Nothing was served, so the file is left untouched.
					logging.Error(ctx, "http server failed", slog.Any("error", err))
					return fmt.Errorf("http server: %w", err)
				}
				err = nil
			case <-ctx.Done():
				logging.Info(ctx, "received shutdown signal")
				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
				err = srv.Shutdown(shutdownCtx)
				cancel()
			}

			// The listener is closed, so nothing else touches the catalog.
			if a.cfg.SaveOnExit {
				err = errors.Join(err, a.save(ctx))
			}
			return err
		},
	}

	c.Flags().StringVarP(&port, "port", "p", "", "port to listen on (overrides config and PORT)")
	return c
}

func listCmd(opts *options) *cobra.Command {
	var (
		plate, brand, model string
		year                int
	)

	c := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			var preds []catalog.Predicate
			if plate != "" {
				preds = append(preds, catalog.ByPlate(strings.ToUpper(plate)))
			}
			if brand != "" {
				preds = append(preds, catalog.ByMake(strings.ToUpper(brand)))
			}
			if model != "" {
				preds = append(preds, catalog.ByModel(strings.ToUpper(model)))
			}
			if year != 0 {
				preds = append(preds, catalog.ByYear(year))
			}

			found := a.catalog.Filter(ctx, "list", catalog.Every(preds...))
			if found.IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No vehicles found")
				return nil
			}
			shell.WriteTable(cmd.OutOrStdout(), found)
			return nil
		},
	}

	c.Flags().StringVar(&plate, "plate", "", "only the vehicle with this plate")
	c.Flags().StringVar(&brand, "make", "", "only vehicles of this make")
	c.Flags().StringVar(&model, "model", "", "only vehicles of this model")
	c.Flags().IntVar(&year, "year", 0, "only vehicles registered in this year")
	return c
}

func addCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add PLATE MAKE MODEL [DATE]",
		Short: "Add a vehicle and save the catalog",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			plate, brand, model := strings.ToUpper(args[0]), strings.ToUpper(args[1]), strings.ToUpper(args[2])
			var v catalog.Vehicle
			if len(args) == 4 {
				v, err = catalog.NewVehicle(plate, brand, model, args[3])
			} else {
				v, err = catalog.NewVehicleWithDefaultDate(plate, brand, model)
			}
			if err != nil {
				return err
			}

			if err := a.catalog.Add(ctx, v); err != nil {
				return err
			}
			if err := a.save(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", v)
			return nil
		},
	}
}

func deleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PLATE",
		Short: "Delete a vehicle and save the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			plate := strings.ToUpper(args[0])
			if !a.catalog.Delete(ctx, plate) {
				return errNotFound(plate)
			}
			if err := a.save(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", plate)
			return nil
		},
	}
}

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the catalog file and report whether it is well formed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.close()

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d vehicles in %s\n", a.catalog.Size(), a.store.Path())
			return nil
		},
	}
}
