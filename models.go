package wiki

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Locus is where the cause of an event sits
type Locus = string

const (
	LocusInternal Locus = "internal"
	LocusExternal Locus = "external"
)

// Stability is whether the cause persists over time
type Stability = string

const (
	StabilityStable   Stability = "stable"
	StabilityUnstable Stability = "unstable"
)

// Controllability is whether the person can influence the cause
type Controllability = string

const (
	Controllable   Controllability = "controllable"
	Uncontrollable Controllability = "uncontrollable"
)

// User is the account model. The email doubles as the login username.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	FullName      string     `bun:"full_name" json:"full_name,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Disabled      bool       `bun:"disabled,notnull,default:false" json:"disabled"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsActive reports whether the account may use protected routes
func (u *User) IsActive() bool {
	return u != nil && !u.Disabled
}

// Factor is a cause an attribution can point at
type Factor struct {
	bun.BaseModel `bun:"table:factors,alias:fct"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Description   string `bun:"description,notnull" json:"description"`
}

// Belief is a statement about an event
type Belief struct {
	bun.BaseModel `bun:"table:beliefs,alias:blf"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	Description   string `bun:"description,notnull" json:"description"`
}

// Attribution classifies the cause behind a belief along the three
// attribution dimensions.
type Attribution struct {
	bun.BaseModel   `bun:"table:attributions,alias:atr"`
	ID              int64           `bun:"id,pk,autoincrement" json:"id"`
	Locus           Locus           `bun:"locus,notnull" json:"locus"`
	Stability       Stability       `bun:"stability,notnull" json:"stability"`
	Controllability Controllability `bun:"controllability,notnull" json:"controllability"`
	Reason          *string         `bun:"reason" json:"reason"`
	FactorID        *int64          `bun:"factor_id" json:"factor_id"`
	BeliefID        *int64          `bun:"belief_id" json:"belief_id"`
	CreatedAt       time.Time       `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Attribution)(nil)

// BeforeAppendModel stamps timestamps on insert and update
func (a *Attribution) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		a.UpdatedAt = a.CreatedAt
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*User)(nil)

func (u *User) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		u.CreatedAt = &now
		u.UpdatedAt = &now
	case *bun.UpdateQuery:
		u.UpdatedAt = &now
	}
	return nil
}
