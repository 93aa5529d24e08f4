package padel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		raw     string
		want    Format
		wantErr error
	}{
		{"TODOS_CONTRA_TODOS", FormatRoundRobin, nil},
		{"  round robin ", FormatRoundRobin, nil},
		{"grupos-eliminatorias", FormatGroupsKnockout, nil},
		{"knockout", FormatKnockout, nil},
		{"Interclub Equipas", FormatInterclub, nil},
		{"INTERCLUB_LIGA", FormatInterclub, nil},
		{"americano", FormatAmericano, nil},
		{"", "", ErrInvalidFormat},
		{"swiss", "", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseFormat(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Validate(t *testing.T) {
	assert.NoError(t, FormatRoundRobin.Validate(false))
	assert.NoError(t, FormatGroupsKnockout.Validate(false))
	assert.NoError(t, FormatKnockout.Validate(false))
	assert.ErrorIs(t, FormatInterclub.Validate(false), ErrTeamEngineRequired)
	assert.ErrorIs(t, FormatRoundRobin.Validate(true), ErrTeamEngineRequired)
	assert.ErrorIs(t, FormatABDraw.Validate(false), ErrFormatNotSupported)
	assert.ErrorIs(t, FormatMexicano.Validate(false), ErrFormatNotSupported)
}

func TestResolvePhase(t *testing.T) {
	p, err := ResolvePhase(FormatGroupsKnockout, "")
	require.NoError(t, err)
	assert.Equal(t, PhaseGroups, p)

	p, err = ResolvePhase(FormatGroupsKnockout, "knockout")
	require.NoError(t, err)
	assert.Equal(t, PhaseKnockout, p)

	p, err = ResolvePhase(FormatKnockout, "")
	require.NoError(t, err)
	assert.Equal(t, PhaseKnockout, p)

	_, err = ResolvePhase(FormatRoundRobin, "KNOCKOUT")
	assert.ErrorIs(t, err, ErrInvalidPhase)

	_, err = ResolvePhase(FormatGroupsKnockout, "FINALS")
	assert.ErrorIs(t, err, ErrInvalidPhase)
}
