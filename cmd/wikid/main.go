package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-print"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-wiki"
	"github.com/goliatone/go-wiki/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := config.NewFlagSet("wikid")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	lgr := wiki.NewLogger(os.Stderr, cfg.GetLogging().GetFormat(), cfg.GetLogging().GetLevel())

	if cfg.IsDevelopment() {
		fmt.Println("============")
		fmt.Println(print.MaybePrettyJSON(cfg.Masked()))
		fmt.Println("============")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()

	db, err := wiki.OpenDB(cfg.GetPersistence(), lgr.Named("persistence"))
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.GetPersistence().GetMigrateOnStart() {
		if err := wiki.Migrate(ctx, db); err != nil {
			return err
		}
	}

	repo := wiki.NewRepositoryManager(db)
	repo.MustValidate()

	tokens, err := wiki.NewTokenServiceFromConfig(cfg.GetAuth())
	if err != nil {
		return err
	}
	tokens.WithLogger(lgr.Named("tokens"))

	auth := wiki.NewAuthenticator(repo.Users(), tokens).WithLogger(lgr.Named("auth"))
	services := wiki.NewServices(repo, lgr.Named("services"))

	app := wiki.NewHTTPApp(cfg.GetServer(), lgr.Named("http"))
	wiki.NewAPI(services, auth,
		wiki.WithUserControllerLogger(lgr.Named("users")),
		wiki.WithUserControllerDebug(cfg.IsDevelopment() && cfg.GetPersistence().GetDebug()),
		wiki.WithUserControllerConfig(cfg.GetAuth()),
	).Mount(app, repo)

	errc := make(chan error, 1)
	go func() {
		lgr.Info("listening", "address", cfg.GetServer().GetAddress())
		errc <- app.Listen(cfg.GetServer().GetAddress())
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.GetServer().GetShutdownTimeout()); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
