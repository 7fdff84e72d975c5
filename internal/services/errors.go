package services

import "errors"

// Service-level errors
var (
	ErrInvalidSubmission  = errors.New("invalid submission")
	ErrCaseNotFound       = errors.New("case not found")
	ErrPartyNotFound      = errors.New("party not found")
	ErrPartyNotPlaintiff  = errors.New("only plaintiffs carry issue selections")
	ErrUnknownIssueOption = errors.New("unknown issue option")
	ErrInvalidPartyName   = errors.New("plaintiff name is required")
)
