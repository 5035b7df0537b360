package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-print"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/goliatone/go-wiki"
	"github.com/goliatone/go-wiki/config"
)

const usage = `usage: wikiadm <command> [flags]

commands:
  migrate        apply database migrations
  create-user    create an account, prompting for the password
  disable-user   block an account from protected routes
  enable-user    lift a previous disable-user
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "wikiadm:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	fs := config.NewFlagSet("wikiadm " + cmd)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "account full name")

	switch cmd {
	case "migrate", "create-user", "disable-user", "enable-user":
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	lgr := wiki.NewLogger(os.Stderr, cfg.GetLogging().GetFormat(), cfg.GetLogging().GetLevel())

	db, err := wiki.OpenDB(cfg.GetPersistence(), lgr.Named("persistence"))
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd == "migrate" {
		if err := wiki.Migrate(ctx, db); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	}

	if *email == "" {
		return errors.New("--email is required")
	}

	repo := wiki.NewRepositoryManager(db)
	repo.MustValidate()

	switch cmd {
	case "create-user":
		return createUser(ctx, cfg, repo, lgr, *email, *name)
	case "disable-user":
		return setDisabled(ctx, repo, *email, true)
	default:
		return setDisabled(ctx, repo, *email, false)
	}
}

func createUser(ctx context.Context, cfg *config.BaseConfig, repo wiki.RepositoryManager, lgr wiki.Logger, email, name string) error {
	tokens, err := wiki.NewTokenServiceFromConfig(cfg.GetAuth())
	if err != nil {
		return err
	}
	auth := wiki.NewAuthenticator(repo.Users(), tokens).WithLogger(lgr)

	password, err := readPassword(os.Stdin, "Password: ")
	if err != nil {
		return err
	}
	repeat, err := readPassword(os.Stdin, "Repeat password: ")
	if err != nil {
		return err
	}

	user, err := auth.SignUp(ctx, wiki.UserCreateInput{
		Email:     email,
		FullName:  name,
		Password:  password,
		RPassword: repeat,
	})
	if err != nil {
		return describe(err)
	}

	fmt.Println(print.MaybePrettyJSON(user))
	return nil
}

func setDisabled(ctx context.Context, repo wiki.RepositoryManager, email string, disabled bool) error {
	user, err := repo.Users().SetDisabled(ctx, email, disabled)
	if err != nil {
		return err
	}

	if user == nil {
		return fmt.Errorf("no account for %s", email)
	}

	fmt.Println(print.MaybePrettyJSON(user))
	return nil
}

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise, so passwords can be piped in scripts.
func readPassword(in *os.File, prompt string) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return readLine(in)
}

var stdinReader *bufio.Reader

func readLine(r io.Reader) (string, error) {
	if stdinReader == nil {
		stdinReader = bufio.NewReader(r)
	}
	line, err := stdinReader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func describe(err error) error {
	var de *wiki.Error
	if errors.As(err, &de) {
		return errors.New(de.Detail())
	}
	return err
}
