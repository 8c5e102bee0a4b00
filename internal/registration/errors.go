package registration

// Kind classifies why a submission was not recorded.
type Kind string

// User input kinds. The submitter can fix these and resubmit.
const (
	KindMissingField      Kind = "MissingField"
	KindDuplicateEmail    Kind = "DuplicateEmail"
	KindDuplicatePhone    Kind = "DuplicatePhone"
	KindTeamNameTooShort  Kind = "TeamNameTooShort"
	KindReservedWord      Kind = "ReservedWord"
	KindTeamNameCollision Kind = "TeamNameCollision"
	KindTeamNotFound      Kind = "TeamNotFound"
	KindTeamFull          Kind = "TeamFull"
	KindInvalidAction     Kind = "InvalidAction"
)

// Environment kinds. Nothing was persisted, the same data can be resubmitted.
const (
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindPersistFailure     Kind = "PersistFailure"
)

// Sentinels for errors.Is matching on the kind only.
var (
	ErrMissingField       = &Error{Kind: KindMissingField}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail}
	ErrDuplicatePhone     = &Error{Kind: KindDuplicatePhone}
	ErrTeamNameTooShort   = &Error{Kind: KindTeamNameTooShort}
	ErrReservedWord       = &Error{Kind: KindReservedWord}
	ErrTeamNameCollision  = &Error{Kind: KindTeamNameCollision}
	ErrTeamNotFound       = &Error{Kind: KindTeamNotFound}
	ErrTeamFull           = &Error{Kind: KindTeamFull}
	ErrInvalidAction      = &Error{Kind: KindInvalidAction}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable}
	ErrPersistFailure     = &Error{Kind: KindPersistFailure}
)

// Error is a rejected submission. Message is safe to show to the submitter.
type Error struct {
	Kind    Kind
	Message string

	// Err is the underlying cause of an environment error.
	Err error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// UserError reports whether the kind is caused by the submitted data.
func (k Kind) UserError() bool {
	return k != KindStorageUnavailable && k != KindPersistFailure
}

const storageMessage = "An error occurred while saving the data. Please try again."

func storageError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: storageMessage, Err: err}
}
