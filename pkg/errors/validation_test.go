package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRecordID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"numeric", "42", false},
		{"slug", "grow-revenue", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"control", "a\x01b", true},
		{"too long", strings.Repeat("x", maxIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecordID(tt.id)
			if tt.wantErr {
				assert.True(t, Is(err, ErrCodeInvalidInput), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"okrs.json", false},
		{"/tmp/okrs.json", false},
		{"../../examples/okrs.json", false},
		{":memory:", false},
		{"", true},
		{"  ", true},
		{"okrs\x00.json", true},
		{strings.Repeat("a", maxPathLength+1), true},
	}

	for _, tt := range tests {
		err := ValidatePath(tt.path)
		assert.Equal(t, tt.wantErr, err != nil, "ValidatePath(%q) = %v", tt.path, err)
		if err != nil {
			assert.Equal(t, ErrCodeInvalidPath, GetCode(err))
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://okr.example.com/api", false},
		{"http://localhost:8000", false},
		{"", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"okr.example.com/api", true},
		{"http://[::1", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		assert.Equal(t, tt.wantErr, err != nil, "ValidateURL(%q) = %v", tt.url, err)
	}
}
