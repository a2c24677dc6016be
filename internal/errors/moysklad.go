package errors

import "errors"

var (
	ErrMissingCredentials = errors.New("missing MS_TOKEN or MS_BASIC_TOKEN for MoySklad API access")
	ErrUnexpectedStatus   = errors.New("unexpected response status code")
)
