package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialPair_ZeroAndComplete(t *testing.T) {
	tests := []struct {
		name     string
		pair     CredentialPair
		zero     bool
		complete bool
	}{
		{"empty", CredentialPair{}, true, false},
		{"both", CredentialPair{AccessToken: "A", RefreshToken: "R"}, false, true},
		{"access only", CredentialPair{AccessToken: "A"}, false, false},
		{"refresh only", CredentialPair{RefreshToken: "R"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.zero, tt.pair.IsZero())
			assert.Equal(t, tt.complete, tt.pair.Complete())
		})
	}
}

func TestPrincipal_DisplayName(t *testing.T) {
	assert.Equal(t, "Kim", Principal{Email: "a@x.kr", Name: "Kim"}.DisplayName())
	assert.Equal(t, "a@x.kr", Principal{Email: "a@x.kr"}.DisplayName())
}
