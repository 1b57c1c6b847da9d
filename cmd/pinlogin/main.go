package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/crypto/bcrypt"

	"github.com/jask/pinlogin/internal/config"
	"github.com/jask/pinlogin/internal/database"
	"github.com/jask/pinlogin/internal/database/repository"
	"github.com/jask/pinlogin/internal/logging"
	"github.com/jask/pinlogin/internal/registry"
	"github.com/jask/pinlogin/internal/secrets"
	"github.com/jask/pinlogin/internal/tui"
	"github.com/jask/pinlogin/internal/verify"
)

const host = "login"

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/pinlogin/config.toml or $PINLOGIN_CONFIG)")
	enrollTOTP := flag.Bool("enroll-totp", false, "generate a TOTP secret for the account and print its otpauth URI")
	setPIN := flag.Bool("set-pin", false, "choose a static PIN for the account")
	history := flag.Int("history", 0, "print the last N attempts for the account and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := logging.Open(cfg.Log)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer closeLog()

	store, err := secrets.NewStore(cfg.Verify.SecretsDir)
	if err != nil {
		log.Fatalf("secrets: %v", err)
	}
	totp := verify.NewTOTP(cfg.Verify.Issuer, cfg.Field.Count, cfg.Verify.Period, cfg.Verify.Skew)

	switch {
	case *enrollTOTP:
		if err := enroll(store, totp, cfg.Verify.Account); err != nil {
			log.Fatalf("enroll: %v", err)
		}
		return
	case *setPIN:
		if err := choosePIN(ctx, cfg, store, logger); err != nil {
			log.Fatalf("set pin: %v", err)
		}
		return
	}

	db, err := database.OpenMigrated(cfg.Database.Path, cfg.Database.Migrations)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	attempts := repository.NewAttemptRepo(db)

	if cfg.Database.Retention > 0 {
		if n, err := attempts.Purge(ctx, time.Now().Add(-cfg.Database.Retention)); err != nil {
			logger.Warn("purge attempts", slog.Any("error", err))
		} else if n > 0 {
			logger.Info("purged attempts", slog.Int64("rows", n))
		}
	}

	if *history > 0 {
		if err := printHistory(ctx, attempts, cfg.Verify.Account, *history); err != nil {
			log.Fatalf("history: %v", err)
		}
		return
	}

	sec, err := store.Get(cfg.Verify.Account)
	if errors.Is(err, secrets.ErrNotFound) {
		log.Fatalf("no secret for %q: run with -enroll-totp or -set-pin first", cfg.Verify.Account)
	}
	if err != nil {
		log.Fatalf("secrets: %v", err)
	}
	verifier, err := verify.FromSecret(sec, totp)
	if err != nil {
		log.Fatalf("verifier: %v", err)
	}

	checker := &verify.Checker{
		Verifier:    verifier,
		Attempts:    attempts,
		Account:     cfg.Verify.Account,
		MaxFailures: cfg.Verify.MaxFailures,
		Lockout:     cfg.Verify.Lockout,
		Logger:      logger,
	}

	opts := cfg.ControllerOptions()
	opts.Logger = logger
	app, err := tui.New(ctx, registry.New(), host, opts, tui.Deps{
		Checker:       checker,
		Timeout:       cfg.Verify.Timeout,
		QuitOnSuccess: cfg.Verify.QuitOnSuccess,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("tui: %v", err)
	}
	app.SetTitle(fmt.Sprintf("PIN for %s", cfg.Verify.Account))

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if !app.Verified() {
		os.Exit(1)
	}
}

func enroll(store *secrets.Store, totp *verify.TOTP, account string) error {
	secret, uri, err := totp.Enroll(account)
	if err != nil {
		return err
	}
	if err := store.Put(account, secrets.Secret{Kind: secrets.KindTOTP, Value: secret}); err != nil {
		return err
	}
	fmt.Println(uri)
	return nil
}

// choosePIN runs the pin control unverified and stores the bcrypt hash of
// what was typed.
func choosePIN(ctx context.Context, cfg config.Config, store *secrets.Store, logger *slog.Logger) error {
	var chosen string
	opts := cfg.ControllerOptions()
	opts.Logger = logger
	opts.OnComplete = func(pin string) { chosen = pin }

	app, err := tui.New(ctx, registry.New(), host, opts, tui.Deps{QuitOnSuccess: true, Logger: logger})
	if err != nil {
		return err
	}
	app.SetTitle(fmt.Sprintf("Choose a %d digit PIN for %s", cfg.Field.Count, cfg.Verify.Account))
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	if chosen == "" {
		return errors.New("no PIN entered")
	}
	hash, err := verify.HashPIN(chosen, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := store.Put(cfg.Verify.Account, secrets.Secret{Kind: secrets.KindBcrypt, Value: hash}); err != nil {
		return err
	}
	fmt.Printf("PIN stored for %s\n", cfg.Verify.Account)
	return nil
}

func printHistory(ctx context.Context, attempts *repository.AttemptRepo, account string, limit int) error {
	list, err := attempts.ListRecent(ctx, account, limit)
	if err != nil {
		return err
	}
	for _, a := range list {
		outcome := "ok"
		if !a.Success {
			outcome = "fail"
		}
		fmt.Printf("%s  %-4s  %d digits  %s\n", a.CreatedAt.Local().Format(time.DateTime), outcome, a.PINLength, a.Reason)
	}
	return nil
}
