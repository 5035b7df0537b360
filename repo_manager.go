package wiki

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Ping(ctx context.Context) error
	Users() Users
	Factors() Store[Factor]
	Beliefs() Store[Belief]
	Attributions() Store[Attribution]
}

type mngr struct {
	db           *bun.DB
	users        Users
	factors      Store[Factor]
	beliefs      Store[Belief]
	attributions Store[Attribution]
}

// NewRepositoryManager wires every store over the same db handle
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db),
		factors:      NewRecords[Factor](db),
		beliefs:      NewRecords[Belief](db),
		attributions: NewRecords[Attribution](db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database handle")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.factors == nil {
		return errors.New("repository factors should be initialized")
	}

	if m.beliefs == nil {
		return errors.New("repository beliefs should be initialized")
	}

	if m.attributions == nil {
		return errors.New("repository attributions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Factors() Store[Factor] {
	return m.factors
}

func (m mngr) Beliefs() Store[Belief] {
	return m.beliefs
}

func (m mngr) Attributions() Store[Attribution] {
	return m.attributions
}
