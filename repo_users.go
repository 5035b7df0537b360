package wiki

import (
	"context"

	"github.com/uptrace/bun"
)

// Users is the account store. Lookups that find nothing return (nil, nil).
type Users interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SetDisabled(ctx context.Context, email string, disabled bool) (*User, error)
	List(ctx context.Context) ([]*User, error)
}

type users struct {
	records *Records[User]
	db      *bun.DB
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun backed Users store
func NewUsersRepository(db *bun.DB) Users {
	return &users{
		records: NewRecords[User](db),
		db:      db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", normalizeEmail(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, classifyStoreError(err)
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, user *User) (*User, error) {
	return a.CreateTx(ctx, a.db, user)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	user.Email = normalizeEmail(user.Email)
	return a.records.CreateTx(ctx, tx, user)
}

// SetDisabled flips the disabled flag of the account with email
func (a *users) SetDisabled(ctx context.Context, email string, disabled bool) (*User, error) {
	var updated *User
	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := a.GetByEmailTx(ctx, tx, email)
		if err != nil || user == nil {
			return err
		}

		user.Disabled = disabled
		if _, err := tx.NewUpdate().
			Model(user).
			Column("disabled", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return classifyStoreError(err)
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	return a.records.List(ctx)
}
