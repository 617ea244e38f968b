package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motoconnect/auth-service/internal/core/domain"
)

func TestParseEmail(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "simple", raw: "ana@x.com", want: "ana@x.com"},
		{name: "trims whitespace", raw: "  ana@x.com\t", want: "ana@x.com"},
		{name: "preserves case", raw: "Ana.Silva@X.com", want: "Ana.Silva@X.com"},
		{name: "plus addressing", raw: "ana+fleet@mail.example.org", want: "ana+fleet@mail.example.org"},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: "   ", wantErr: true},
		{name: "missing at", raw: "ana.x.com", wantErr: true},
		{name: "missing local part", raw: "@x.com", wantErr: true},
		{name: "missing domain dot", raw: "ana@localhost", wantErr: true},
		{name: "two ats", raw: "ana@@x.com", wantErr: true},
		{name: "inner space", raw: "ana silva@x.com", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			email, err := domain.ParseEmail(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrInvalidEmail)
				assert.True(t, email.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, email.Address())
		})
	}
}

func TestEmail_EqualityIsCaseSensitive(t *testing.T) {
	a, err := domain.ParseEmail("ana@x.com")
	require.NoError(t, err)
	b, err := domain.ParseEmail(" ana@x.com ")
	require.NoError(t, err)
	c, err := domain.ParseEmail("Ana@x.com")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
