package errors

import (
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "core", false},
		{"valid with dash", "my-package", false},
		{"valid with underscore", "my_package", false},
		{"valid with dot", "my.package", false},

		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"too long", string(make([]byte, 300)), true},
		{"slash", "foo/bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLinkPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty is package dir", "", false},
		{"dot", ".", false},
		{"simple", "src", false},
		{"nested", "src/lib/pkg", false},
		{"dotted file", "src/.hidden", false},
		{"double dot inside name", "src/a..b", false},

		{"absolute", "/etc/passwd", true},
		{"traversal", "../other", true},
		{"nested traversal", "src/../../other", true},
		{"backslash", "src\\lib", true},
		{"null byte", "src\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLinkPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLinkPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateLinkPath(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidateRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://github.com/org/core.git", false},
		{"ssh", "git@github.com:org/core.git", false},
		{"file", "/srv/git/core.git", false},

		{"empty", "", true},
		{"space", "https://github.com/org/co re.git", true},
		{"option injection", "--upload-pack=evil", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRepoURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRepoURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
