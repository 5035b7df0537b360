package wiki

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// CreateInput is a validated create payload for T
type CreateInput[T any] interface {
	Validate() error
	Record() *T
}

// Patch is a partial update for T. Apply copies the set fields onto record
// and returns the column names it touched.
type Patch[T any] interface {
	IsEmpty() bool
	Validate() error
	Apply(record *T) []string
}

const maxDescriptionLength = 4096

// trimmed returns a trimmed copy of s, nil stays nil
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// FactorInput is the create payload for factors
type FactorInput struct {
	Description string `json:"description"`
}

func (r FactorInput) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.Required, validation.Length(1, maxDescriptionLength)),
	)
}

func (r FactorInput) Record() *Factor {
	return &Factor{Description: strings.TrimSpace(r.Description)}
}

// FactorPatch updates a factor
type FactorPatch struct {
	Description *string `json:"description"`
}

func (p FactorPatch) IsEmpty() bool { return p.Description == nil }

func (p FactorPatch) Validate() error {
	p.Description = trimmed(p.Description)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Description, validation.NilOrNotEmpty, validation.Length(1, maxDescriptionLength)),
	)
}

func (p FactorPatch) Apply(record *Factor) []string {
	var columns []string
	if p.Description != nil {
		record.Description = strings.TrimSpace(*p.Description)
		columns = append(columns, "description")
	}
	return columns
}

// BeliefInput is the create payload for beliefs
type BeliefInput struct {
	Description string `json:"description"`
}

func (r BeliefInput) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	return validation.ValidateStruct(&r,
		validation.Field(&r.Description, validation.Required, validation.Length(1, maxDescriptionLength)),
	)
}

func (r BeliefInput) Record() *Belief {
	return &Belief{Description: strings.TrimSpace(r.Description)}
}

// BeliefPatch updates a belief
type BeliefPatch struct {
	Description *string `json:"description"`
}

func (p BeliefPatch) IsEmpty() bool { return p.Description == nil }

func (p BeliefPatch) Validate() error {
	p.Description = trimmed(p.Description)
	return validation.ValidateStruct(&p,
		validation.Field(&p.Description, validation.NilOrNotEmpty, validation.Length(1, maxDescriptionLength)),
	)
}

func (p BeliefPatch) Apply(record *Belief) []string {
	var columns []string
	if p.Description != nil {
		record.Description = strings.TrimSpace(*p.Description)
		columns = append(columns, "description")
	}
	return columns
}

var (
	locusValues           = []any{LocusInternal, LocusExternal}
	stabilityValues       = []any{StabilityStable, StabilityUnstable}
	controllabilityValues = []any{Controllable, Uncontrollable}
)

// AttributionInput is the create payload for attributions
type AttributionInput struct {
	Locus           Locus           `json:"locus"`
	Stability       Stability       `json:"stability"`
	Controllability Controllability `json:"controllability"`
	Reason          *string         `json:"reason"`
	FactorID        *int64          `json:"factor_id"`
	BeliefID        *int64          `json:"belief_id"`
}

func (r AttributionInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Locus, validation.Required, validation.In(locusValues...)),
		validation.Field(&r.Stability, validation.Required, validation.In(stabilityValues...)),
		validation.Field(&r.Controllability, validation.Required, validation.In(controllabilityValues...)),
		validation.Field(&r.Reason, validation.Length(0, maxDescriptionLength)),
		validation.Field(&r.FactorID, validation.Min(int64(1))),
		validation.Field(&r.BeliefID, validation.Min(int64(1))),
	)
}

func (r AttributionInput) Record() *Attribution {
	return &Attribution{
		Locus:           r.Locus,
		Stability:       r.Stability,
		Controllability: r.Controllability,
		Reason:          r.Reason,
		FactorID:        r.FactorID,
		BeliefID:        r.BeliefID,
	}
}

// AttributionPatch updates an attribution. Every write bumps updated_at.
type AttributionPatch struct {
	Locus           *Locus           `json:"locus"`
	Stability       *Stability       `json:"stability"`
	Controllability *Controllability `json:"controllability"`
	Reason          *string          `json:"reason"`
	FactorID        *int64           `json:"factor_id"`
	BeliefID        *int64           `json:"belief_id"`
}

func (p AttributionPatch) IsEmpty() bool {
	return p.Locus == nil && p.Stability == nil && p.Controllability == nil &&
		p.Reason == nil && p.FactorID == nil && p.BeliefID == nil
}

func (p AttributionPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Locus, validation.NilOrNotEmpty, validation.In(locusValues...)),
		validation.Field(&p.Stability, validation.NilOrNotEmpty, validation.In(stabilityValues...)),
		validation.Field(&p.Controllability, validation.NilOrNotEmpty, validation.In(controllabilityValues...)),
		validation.Field(&p.Reason, validation.Length(0, maxDescriptionLength)),
		validation.Field(&p.FactorID, validation.Min(int64(1))),
		validation.Field(&p.BeliefID, validation.Min(int64(1))),
	)
}

func (p AttributionPatch) Apply(record *Attribution) []string {
	var columns []string
	if p.Locus != nil {
		record.Locus = *p.Locus
		columns = append(columns, "locus")
	}
	if p.Stability != nil {
		record.Stability = *p.Stability
		columns = append(columns, "stability")
	}
	if p.Controllability != nil {
		record.Controllability = *p.Controllability
		columns = append(columns, "controllability")
	}
	if p.Reason != nil {
		record.Reason = p.Reason
		columns = append(columns, "reason")
	}
	if p.FactorID != nil {
		record.FactorID = p.FactorID
		columns = append(columns, "factor_id")
	}
	if p.BeliefID != nil {
		record.BeliefID = p.BeliefID
		columns = append(columns, "belief_id")
	}
	if len(columns) > 0 {
		columns = append(columns, "updated_at")
	}
	return columns
}

// UserCreateInput is the sign-up payload
type UserCreateInput struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	RPassword string `json:"rpassword" form:"rpassword"`
	FullName  string `json:"full_name" form:"full_name"`
}

// PasswordsMatch is checked before anything else during sign-up
func (r UserCreateInput) PasswordsMatch() bool {
	return r.Password == r.RPassword
}

func (r UserCreateInput) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.FullName, validation.Length(0, 255)),
	)
}

// Normalize trims and lowercases the email
func (r UserCreateInput) Normalize() UserCreateInput {
	r.Email = normalizeEmail(r.Email)
	r.FullName = strings.TrimSpace(r.FullName)
	return r
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
