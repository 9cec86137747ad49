// Package validate checks contact input before it reaches the record store.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/contactbook/model"
)

// Messages returned in Errors, keyed by field.
const (
	MsgBlankName    = "Name cannot be blank"
	MsgInvalidName  = "Name contains invalid characters"
	MsgInvalidEmail = "Provide a valid email address"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)

// ExistenceChecker reports whether an email is already used by a contact.
// Implementations compare emails case-insensitively.
type ExistenceChecker interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// ExistsFunc adapts a function to ExistenceChecker.
type ExistsFunc func(ctx context.Context, email string) (bool, error)

// Exists implements ExistenceChecker.
func (f ExistsFunc) Exists(ctx context.Context, email string) (bool, error) {
	return f(ctx, email)
}

// Errors maps a field name ("name", "email") to a human-readable message.
// A nil or empty Errors means the input is valid.
type Errors map[string]string

// Validator checks names and emails.
type Validator struct {
	exists ExistenceChecker
}

// New returns a Validator. exists may be nil, in which case uniqueness is
// not checked.
func New(exists ExistenceChecker) *Validator {
	return &Validator{exists: exists}
}

// Validate checks a new contact. The returned error is non-nil only if the
// existence check itself failed.
func (v *Validator) Validate(ctx context.Context, name, email string) (Errors, error) {
	errs := Errors{}
	if msg := ValidateName(name); msg != "" {
		errs["name"] = msg
	}
	msg, err := v.ValidateEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if msg != "" {
		errs["email"] = msg
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

// ValidateEmail checks the format of email and that no contact uses it yet.
// It returns the empty string for a valid email.
func (v *Validator) ValidateEmail(ctx context.Context, email string) (string, error) {
	// The pattern reads invalid bytes as U+FFFD, so it cannot reject them.
	if !utf8.ValidString(email) {
		return MsgInvalidEmail, nil
	}
	key := model.NormalizeKey(strings.TrimSpace(email))

	msg := ""
	if !emailPattern.MatchString(key) {
		msg = MsgInvalidEmail
	}
	if v.exists != nil && key != "" {
		taken, err := v.exists.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("check email %q: %w", key, err)
		}
		if taken {
			msg = fmt.Sprintf("This email %s is already saved in the Contact Book", key)
		}
	}
	return msg, nil
}

// ValidateName reports MsgBlankName for a name that is empty or only
// whitespace, MsgInvalidName for a name that is not valid UTF-8, and the
// empty string otherwise.
func ValidateName(name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return MsgBlankName
	case !utf8.ValidString(name):
		return MsgInvalidName
	}
	return ""
}
