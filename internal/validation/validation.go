// Package validation проверяет пользовательский ввод на границе HTTP API.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// UsernamePattern: латинские буквы, цифры и подчеркивание, 2-32 символа
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{2,32}$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 2
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
	// MaxEmailLen ограничение длины email (RFC 5321)
	MaxEmailLen = 254
	// MaxPasswordBytes bcrypt игнорирует все, что длиннее 72 байт
	MaxPasswordBytes = 72
	// DefaultPasswordMinLength минимальная длина пароля по умолчанию
	DefaultPasswordMinLength = 8
)

// ValidateUsername проверяет формат username
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	if len(username) < MinUsernameLen {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLen)
	}

	if len(username) > MaxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLen)
	}

	if !UsernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// NormalizeEmail приводит email к виду, в котором он хранится в БД
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address like "a@x.com".
// Display-name forms ("A <a@x.com>") are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if len(email) > MaxEmailLen {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email format")
	}
	if !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return fmt.Errorf("invalid email format")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string, minLen int) error {
	if minLen <= 0 {
		minLen = DefaultPasswordMinLength
	}

	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	if len(password) < minLen {
		return fmt.Errorf("password must be at least %d characters long", minLen)
	}

	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}

	return nil
}
