package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		errMsg   string
		wantErr  bool
	}{
		{name: "valid lowercase", username: "alice"},
		{name: "valid mixed case", username: "AliceSmith"},
		{name: "valid with underscore and digits", username: "a1_b2"},
		{name: "valid min length", username: "a1"},
		{name: "valid max length", username: strings.Repeat("a", 32)},
		{name: "empty", username: "", wantErr: true, errMsg: "username cannot be empty"},
		{name: "too short", username: "a", wantErr: true, errMsg: "at least 2"},
		{name: "too long", username: strings.Repeat("a", 33), wantErr: true, errMsg: "must not exceed 32"},
		{name: "with dash", username: "alice-smith", wantErr: true, errMsg: "can only contain"},
		{name: "with space", username: "alice smith", wantErr: true, errMsg: "can only contain"},
		{name: "cyrillic", username: "алиса", wantErr: true, errMsg: "can only contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "simple", email: "a@x.com"},
		{name: "plus tag", email: "henok+blog@example.org"},
		{name: "empty", email: "", wantErr: true},
		{name: "no at", email: "ax.com", wantErr: true},
		{name: "no tld", email: "a@localhost", wantErr: true},
		{name: "display name", email: "A <a@x.com>", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.com "))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		errMsg   string
		minLen   int
		wantErr  bool
	}{
		{name: "exactly min length", password: "12345678", minLen: 8},
		{name: "default min length applied", password: "longenough1", minLen: 0},
		{name: "too short", password: "short", minLen: 8, wantErr: true, errMsg: "at least 8"},
		{name: "empty", password: "", minLen: 8, wantErr: true, errMsg: "cannot be empty"},
		{name: "custom min length", password: "123456789", minLen: 12, wantErr: true, errMsg: "at least 12"},
		{name: "over bcrypt limit", password: strings.Repeat("p", 73), minLen: 8, wantErr: true, errMsg: "72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, tt.minLen)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}
