package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"chat-relay/errors"
)

var validate = validator.New()

// LoginRequest are the credential fields of a LOGIN frame. Usernames are
// case-sensitive primary keys; both fields must be present and bounded so a
// single frame cannot smuggle an absurd payload into the digest function.
type LoginRequest struct {
	Username string `validate:"required,max=64,excludesall=0x7C"`
	Password string `validate:"required,max=128"`
}

// ValidateLogin checks the business rules before any expensive cryptographic
// operation runs.
func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMissingCredentials, err)
	}
	return nil
}
