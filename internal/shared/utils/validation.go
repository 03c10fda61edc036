package utils

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validation limits.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 1
	MaxPasswordLength = 72 // bcrypt ignores everything past 72 bytes
)

var (
	// UsernamePattern matches login names.
	UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	// VariableNamePattern matches environment variable names.
	VariableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	// AliasNamePattern matches alias names: one word, no delimiters or quotes.
	AliasNamePattern = regexp.MustCompile(`^[^\s/='"\\]+$`)
)

// ValidateUsername checks a login name.
func ValidateUsername(username string) error {
	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("invalid username '%s'. Usernames must be %d-%d characters and contain only letters, numbers, and underscores",
			username, MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ValidatePassword checks a password's length in bytes.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must not be empty")
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", MaxPasswordLength)
	}
	if !utf8.ValidString(password) {
		return fmt.Errorf("password must be valid UTF-8")
	}
	return nil
}

// ValidateVariableName checks an environment variable name.
func ValidateVariableName(name string) error {
	if !VariableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid variable name '%s'", name)
	}
	return nil
}

// ValidateAliasName checks an alias name.
func ValidateAliasName(name string) error {
	if !AliasNamePattern.MatchString(name) {
		return fmt.Errorf("invalid alias name '%s'", name)
	}
	return nil
}
