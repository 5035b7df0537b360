package wiki

import (
	"context"
	"errors"
)

// UserStore is what the authenticator needs from the users repository
type UserStore interface {
	UserFinder
	Create(ctx context.Context, user *User) (*User, error)
}

// Authenticator logs users in, signs them up and resolves bearer tokens to
// active users.
type Authenticator struct {
	users    UserStore
	provider *UserProvider
	tokens   *TokenService
	hasher   PasswordAuthenticator
	logger   Logger
}

// NewAuthenticator returns an authenticator over users issuing tokens with ts
func NewAuthenticator(users UserStore, ts *TokenService) *Authenticator {
	return &Authenticator{
		users:    users,
		provider: NewUserProvider(users),
		tokens:   ts,
		hasher:   BcryptHasher{},
		logger:   defLogger{},
	}
}

func (a *Authenticator) WithLogger(l Logger) *Authenticator {
	a.logger = resolveLogger(l)
	a.provider.WithLogger(l)
	return a
}

func (a *Authenticator) WithHasher(h PasswordAuthenticator) *Authenticator {
	if h != nil {
		a.hasher = h
		a.provider.WithHasher(h)
	}
	return a
}

// TokenService exposes the issuer used for logins
func (a *Authenticator) TokenService() *TokenService {
	return a.tokens
}

// Login checks the credentials and issues a bearer token. Unknown users and
// wrong passwords fail with the same AuthenticationError.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*Token, error) {
	user, err := a.provider.VerifyIdentity(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, NewAuthenticationError(err)
		}
		a.logger.Error("login verify identity error", "error", err)
		return nil, NewDatabaseError("Issue retrieving user", err)
	}

	accessToken, err := a.tokens.Generate(user.Email)
	if err != nil {
		a.logger.Error("login token generation error", "error", err)
		return nil, err
	}

	return &Token{
		AccessToken: accessToken,
		TokenType:   TokenTypeBearer,
	}, nil
}

// CurrentUser resolves token to an active user. Checks run in order:
// signature and expiry, subject, lookup, disabled flag.
func (a *Authenticator) CurrentUser(ctx context.Context, token string) (*User, error) {
	email, err := a.tokens.ExtractSubject(token)
	if err != nil {
		return nil, err
	}

	user, err := a.provider.FindUser(ctx, email)
	if err != nil {
		a.logger.Error("current user lookup error", "error", err)
		return nil, NewDatabaseError("Issue retrieving user", err)
	}

	if user == nil {
		return nil, &Error{Kind: KindUserNotFound, Message: ErrUserNotFound.Message}
	}

	if user.Disabled {
		return nil, &Error{Kind: KindInactiveUser, Message: ErrInactiveUser.Message}
	}

	return user, nil
}

// SignUp creates an account. Mismatched passwords are rejected before the
// store is touched.
func (a *Authenticator) SignUp(ctx context.Context, input UserCreateInput) (*User, error) {
	if !input.PasswordsMatch() {
		return nil, &Error{Kind: KindPasswordMismatch, Message: ErrPasswordMismatch.Message}
	}

	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, validationFailure(err)
	}

	hash, err := a.hasher.HashPassword(input.Password)
	if err != nil {
		a.logger.Error("sign up hash error", "error", err)
		return nil, err
	}

	user, err := a.users.Create(ctx, &User{
		Email:        input.Email,
		FullName:     input.FullName,
		PasswordHash: hash,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrStoreUniqueViolation):
			return nil, NewValidationError("email already registered", err)
		case errors.Is(err, ErrStoreMissingValue):
			return nil, NewValidationError("Missing required value", err)
		}
		a.logger.Error("sign up create error", "error", err)
		return nil, NewDatabaseError("Unknown issue during user creation", err)
	}

	return user, nil
}
