package oauth

import "fmt"

// Service errors
var (
	ErrCallbackMissingParams = fmt.Errorf("token and provider are required")
	ErrMemberNotFound        = fmt.Errorf("member not found")
	ErrInvalidProfileToken   = fmt.Errorf("profile token carries no did")
	ErrInvalidEmail          = fmt.Errorf("invalid email")
	ErrMemberStore           = fmt.Errorf("member store failure")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrMemberStore, op, err)
}
