package auth

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

var validate = validator.New()

// CredentialError is a user-facing reason a username or password was refused.
type CredentialError struct {
	Message string
}

func (e *CredentialError) Error() string {
	return e.Message
}

type credentials struct {
	Username string `validate:"required,min=3,max=50"`
	Password string `validate:"required,min=6"`
}

// CheckCredentials validates a new account's username and password and
// returns the trimmed username. Failures are *CredentialError.
func CheckCredentials(username, password string) (string, error) {
	c := credentials{Username: strings.TrimSpace(username), Password: password}

	err := validate.Struct(c)
	if err == nil {
		if len(c.Password) > MaxPasswordBytes {
			return "", &CredentialError{"Password must be between 6 and 72 characters"}
		}
		return c.Username, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", err
	}
	switch fe := verrs[0]; fe.Field() {
	case "Username":
		if fe.Tag() == "required" {
			return "", &CredentialError{"Username is required"}
		}
		return "", &CredentialError{"Username must be between 3 and 50 characters"}
	default:
		if fe.Tag() == "required" {
			return "", &CredentialError{"Password is required"}
		}
		return "", &CredentialError{"Password must be between 6 and 72 characters"}
	}
}
