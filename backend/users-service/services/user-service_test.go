package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePasswordPolicy(t *testing.T) {
	service := NewUserService(nil, map[string]bool{"Password1!": true})

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"too short", "Ab1!", true},
		{"no uppercase", "abcdefg1!", true},
		{"no digit", "Abcdefgh!", true},
		{"no special character", "Abcdefgh1", true},
		{"blacklisted", "Password1!", true},
		{"acceptable", "Str0ng.Pass", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.ValidatePassword(tc.password)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
