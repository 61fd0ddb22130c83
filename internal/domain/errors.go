package domain

import "errors"

// ErrorKind is the machine-readable category of a domain failure.
type ErrorKind string

const (
	KindNotFound        ErrorKind = "not_found"
	KindForbidden       ErrorKind = "forbidden"
	KindInvalidState    ErrorKind = "invalid_state"
	KindFull            ErrorKind = "full"
	KindConflict        ErrorKind = "conflict"
	KindNotReady        ErrorKind = "not_ready"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindUnauthenticated ErrorKind = "unauthenticated"
)

// Error is a domain failure with a kind and a human-readable message.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error with the same kind and message, so wrapped
// copies of a sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// NewError creates a domain error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// InvalidArgument creates an invalid_argument error with the given message.
func InvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// KindOf returns the kind of the first domain error in err's chain, or ""
// when err carries none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// User errors
var (
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrInvalidCredentials = NewError(KindUnauthenticated, "invalid credentials")
	ErrUsernameExists     = NewError(KindConflict, "username already exists")
)

// Cart errors
var (
	ErrCartNotFound       = NewError(KindNotFound, "cart not found")
	ErrCartNotReadable    = NewError(KindForbidden, "cart is not visible to this user")
	ErrCartNotMutable     = NewError(KindForbidden, "only the cart owner can modify this cart")
	ErrInvalidCartPlayers = NewError(KindInvalidArgument, "cart maxPlayers must be between 1 and 6")
)

// Lobby errors
var (
	ErrLobbyNotFound     = NewError(KindNotFound, "lobby not found")
	ErrNotInLobby        = NewError(KindNotFound, "user is not in lobby")
	ErrLobbyFull         = NewError(KindFull, "lobby is full")
	ErrAlreadyInLobby    = NewError(KindConflict, "user is already in lobby")
	ErrNotLobbyHost      = NewError(KindForbidden, "only the lobby host can perform this action")
	ErrInvalidLobbyState = NewError(KindInvalidState, "invalid lobby state for this action")
	ErrPlayersNotReady   = NewError(KindNotReady, "not all players are ready")
)

// Game errors
var (
	ErrGameNotFound       = NewError(KindNotFound, "game instance not found")
	ErrNotGameHost        = NewError(KindForbidden, "only the game host can perform this action")
	ErrInvalidGameState   = NewError(KindInvalidState, "invalid game state for this action")
	ErrPlayerNotInGame    = NewError(KindNotFound, "player is not part of this game")
	ErrNotYourPlayer      = NewError(KindForbidden, "player id does not belong to the caller")
	ErrMatchResultMissing = NewError(KindNotFound, "match result not found")
)
