package entity

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindContentMissing
	KindServiceUnavailable
	KindServiceError
	KindNoActionItems
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindContentMissing:
		return "content_missing"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindServiceError:
		return "service_error"
	case KindNoActionItems:
		return "no_action_items"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	for k := KindValidation; k <= KindStorage; k++ {
		if k.String() == s {
			return k
		}
	}
	return KindUnknown
}

// Error is the tagged error every pipeline operation returns.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrContentMissing     = &Error{Kind: KindContentMissing}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrServiceError       = &Error{Kind: KindServiceError}
	ErrNoActionItems      = &Error{Kind: KindNoActionItems}
	ErrStorage            = &Error{Kind: KindStorage}
)

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Detail returns the human-readable message of err without the kind prefix.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func NewValidationError(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NewNotFound(what, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s not found", what, id)}
}

func NewContentMissing(ref string, err error) error {
	return &Error{Kind: KindContentMissing, Msg: fmt.Sprintf("audio %s is missing", ref), Err: err}
}

func NewServiceUnavailable(msg string, err error) error {
	return &Error{Kind: KindServiceUnavailable, Msg: msg, Err: err}
}

func NewServiceError(detail string) error {
	return &Error{Kind: KindServiceError, Msg: detail}
}

func NewNoActionItems(id string) error {
	return &Error{Kind: KindNoActionItems, Msg: fmt.Sprintf("meeting %s has no action items", id)}
}

func NewStorageError(op string, err error) error {
	return &Error{Kind: KindStorage, Msg: op, Err: err}
}
