package wiki_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-wiki"
)

func TestAttributionPatch_Apply(t *testing.T) {
	locus := wiki.LocusExternal
	patch := wiki.AttributionPatch{Locus: &locus, BeliefID: int64Ptr(4)}

	record := &wiki.Attribution{}
	columns := patch.Apply(record)

	assert.Equal(t, []string{"locus", "belief_id", "updated_at"}, columns)
	assert.Equal(t, wiki.LocusExternal, record.Locus)
	assert.Equal(t, int64(4), *record.BeliefID)
	assert.False(t, patch.IsEmpty())

	assert.True(t, wiki.AttributionPatch{}.IsEmpty())
	assert.Empty(t, wiki.AttributionPatch{}.Apply(&wiki.Attribution{}))
}

func TestAttributionInput_Validate(t *testing.T) {
	valid := wiki.AttributionInput{
		Locus:           wiki.LocusInternal,
		Stability:       wiki.StabilityUnstable,
		Controllability: wiki.Uncontrollable,
	}
	assert.NoError(t, valid.Validate())

	tests := map[string]wiki.AttributionInput{
		"missing locus":   {Stability: wiki.StabilityStable, Controllability: wiki.Controllable},
		"bad stability":   {Locus: wiki.LocusInternal, Stability: "sometimes", Controllability: wiki.Controllable},
		"zero factor id":  {Locus: wiki.LocusInternal, Stability: wiki.StabilityStable, Controllability: wiki.Controllable, FactorID: int64Ptr(0)},
		"negative belief": {Locus: wiki.LocusInternal, Stability: wiki.StabilityStable, Controllability: wiki.Controllable, BeliefID: int64Ptr(-1)},
	}
	for name, input := range tests {
		assert.Error(t, input.Validate(), name)
	}
}

func TestUserCreateInput(t *testing.T) {
	input := wiki.UserCreateInput{
		Email:     "  Ada@Example.COM ",
		Password:  "correct-horse",
		RPassword: "correct-horse",
		FullName:  " Ada Lovelace ",
	}.Normalize()

	assert.True(t, input.PasswordsMatch())
	assert.Equal(t, "ada@example.com", input.Email)
	assert.Equal(t, "Ada Lovelace", input.FullName)
	assert.NoError(t, input.Validate())

	short := input
	short.Password = "short"
	assert.Error(t, short.Validate())

	bad := input
	bad.Email = "ada"
	assert.Error(t, bad.Validate())

	mismatch := input
	mismatch.RPassword = "other"
	assert.False(t, mismatch.PasswordsMatch())
}

func TestDescriptionPayloads_RejectBlank(t *testing.T) {
	for _, blank := range []string{"", "   ", "\t\n"} {
		assert.Error(t, wiki.FactorInput{Description: blank}.Validate(), "factor %q", blank)
		assert.Error(t, wiki.BeliefInput{Description: blank}.Validate(), "belief %q", blank)
		assert.Error(t, wiki.FactorPatch{Description: strPtr(blank)}.Validate(), "factor patch %q", blank)
		assert.Error(t, wiki.BeliefPatch{Description: strPtr(blank)}.Validate(), "belief patch %q", blank)
	}

	input := wiki.FactorInput{Description: "  Test Factor  "}
	assert.NoError(t, input.Validate())
	assert.Equal(t, "Test Factor", input.Record().Description)
	assert.Equal(t, "  Test Factor  ", input.Description)

	assert.NoError(t, wiki.BeliefPatch{}.Validate())
}
