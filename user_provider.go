package wiki

import (
	"context"
	"sync"
)

// UserFinder is the store we need to resolve accounts
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// UserProvider handles users
type UserProvider struct {
	store  UserFinder
	hasher PasswordAuthenticator
	logger Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder) *UserProvider {
	return &UserProvider{
		store:  store,
		hasher: BcryptHasher{},
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = resolveLogger(l)
	return u
}

func (u *UserProvider) WithHasher(h PasswordAuthenticator) *UserProvider {
	if h != nil {
		u.hasher = h
	}
	return u
}

// timingHash is compared against when the account does not exist so unknown
// emails cost the same as wrong passwords.
func (u *UserProvider) timingHash() string {
	u.dummyOnce.Do(func() {
		u.dummyHash, _ = u.hasher.HashPassword("wiki-timing-equalizer")
	})
	return u.dummyHash
}

// VerifyIdentity will find the user and compare the password. Unknown users
// and wrong passwords both return ErrMismatchedHashAndPassword.
func (u *UserProvider) VerifyIdentity(ctx context.Context, email, password string) (*User, error) {
	user, err := u.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		_ = u.hasher.ComparePasswordAndHash(password, u.timingHash())
		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		u.logger.Debug("password verification failed", "user_id", user.ID)
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

// FindUser loads a user by email, (nil, nil) when absent
func (u *UserProvider) FindUser(ctx context.Context, email string) (*User, error) {
	return u.store.GetByEmail(ctx, email)
}
