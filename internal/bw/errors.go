package bw

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrToolNotFound       = errors.New("bitwarden CLI not found")
	ErrAuthFailed         = errors.New("bitwarden authentication failed")
	ErrMissingCredentials = errors.New("missing bitwarden API key or master password")
	ErrAmbiguous          = errors.New("multiple items matched and no identifier could be extracted")
	ErrMalformedResponse  = errors.New("malformed response from bitwarden CLI")
	ErrRetriesExhausted   = errors.New("retry attempts exhausted")
)

// Kind classifies a failed tool invocation.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindAmbiguous
	KindNotFound
	KindNoTOTP
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindAmbiguous:
		return "ambiguous"
	case KindNotFound:
		return "not_found"
	case KindNoTOTP:
		return "no_totp"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

const (
	ambiguousPhrase = "More than one result was found"
	noTOTPPhrase    = "no totp available"
	notFoundPhrase  = "not found"
)

// authKeywords mark an error as a session/authentication problem.
var authKeywords = []string{"unauthorized", "invalid", "expired", "unauthenticated", "session"}

// Classify maps tool stderr to a Kind. It is the only place error text is
// pattern matched.
func Classify(stderr string) Kind {
	if strings.Contains(stderr, ambiguousPhrase) {
		return KindAmbiguous
	}
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, noTOTPPhrase) {
		return KindNoTOTP
	}
	for _, kw := range authKeywords {
		if strings.Contains(lower, kw) {
			return KindAuth
		}
	}
	if strings.Contains(lower, notFoundPhrase) {
		return KindNotFound
	}
	return KindUnknown
}

// ToolError is a failed invocation of the bitwarden CLI.
type ToolError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Kind     Kind
}

func (e *ToolError) Error() string {
	sub := "bw"
	if len(e.Args) > 0 {
		sub = "bw " + e.Args[0]
		if len(e.Args) > 1 && e.Args[0] == "get" {
			sub += " " + e.Args[1]
		}
	}
	msg := strings.TrimSpace(e.Stderr)
	if e.Kind == KindTimeout {
		return sub + ": timed out"
	}
	if msg == "" {
		return fmt.Sprintf("%s: exit status %d", sub, e.ExitCode)
	}
	return fmt.Sprintf("%s: %s", sub, msg)
}

// IsKind reports whether err is a *ToolError of kind k.
func IsKind(err error, k Kind) bool {
	var te *ToolError
	return errors.As(err, &te) && te.Kind == k
}
