package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/app"
	"github.com/AnshRaj112/canteen-backend/internal/config"
	"github.com/AnshRaj112/canteen-backend/internal/household"
	"github.com/AnshRaj112/canteen-backend/internal/logging"
	"github.com/AnshRaj112/canteen-backend/internal/persistence"
	"github.com/AnshRaj112/canteen-backend/internal/remote"
	"github.com/AnshRaj112/canteen-backend/internal/storage"
)

var Version = "dev"

var (
	assumeYes bool
	verbose   bool
)

// env is everything a command needs, opened once per invocation.
type env struct {
	ctrl     *app.Controller
	store    *storage.LocalStore
	logger   *zap.Logger
	deviceID string
	out      io.Writer
}

func (e *env) Close() {
	e.ctrl.Close()
	e.store.Close()
	e.logger.Sync()
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("failed to read .env:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:           "canteen",
		Short:         "Canteen - household recipes, meal plans and shopping lists",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(recipesCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(shoppingCmd())
	rootCmd.AddCommand(messageCmd())
	rootCmd.AddCommand(householdCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openEnv wires the local store, household client and controller, then loads.
func openEnv(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()
	cfg := config.LoadClient()

	logger, err := logging.New(cfg.Environment, verbose)
	if err != nil {
		return nil, err
	}
	logging.SetGlobal(logger)

	store, err := storage.OpenLocalStore(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	deviceID, err := loadDeviceID(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := remote.New(cfg.ServerURL, deviceID, cfg.HTTPTimeout, logger)
	session := household.NewSession(store, client, logger)
	if _, err := session.Restore(ctx); err != nil {
		logger.Warn("household reference unavailable", zap.Error(err))
	}
	adapter := persistence.NewAdapter(store, client, session, logger)

	ctrl := app.New(adapter, session, client, app.Options{
		ClientID: deviceID,
		Confirm:  confirmer(cmd.InOrStdin(), cmd.OutOrStdout(), assumeYes),
		Logger:   logger,
	})
	e := &env{ctrl: ctrl, store: store, logger: logger, deviceID: deviceID, out: cmd.OutOrStdout()}

	if err := ctrl.Start(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: showing local data:", err)
	}
	return e, nil
}

// loadDeviceID returns this device's client id, creating it on first run.
func loadDeviceID(ctx context.Context, store *storage.LocalStore) (string, error) {
	data, err := store.Get(ctx, storage.KeyDevice)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	id := uuid.NewString()
	if err := store.Put(ctx, storage.KeyDevice, []byte(id)); err != nil {
		return "", err
	}
	return id, nil
}

// confirmer asks on out and reads y/yes from in.
func confirmer(in io.Reader, out io.Writer, yes bool) func(string) bool {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		if yes {
			return true
		}
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// withEnv adapts a command body that needs an opened env.
func withEnv(fn func(cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		err = fn(cmd, e, args)
		if errors.Is(err, app.ErrCancelled) {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
		return err
	}
}
