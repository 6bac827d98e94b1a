package errs

import "net/http"

const (
	ServerInternalError = 500

	ArgsError           = 1001
	NoPermissionError   = 1002
	NotLoggedInError    = 1003
	RecordNotFoundError = 1004
	TransportError      = 1005
	DuplicateKeyError   = 1006

	TokenInvalidError = 1501
	TokenExpiredError = 1502
	TokenRevokedError = 1503
)

var (
	ErrInternal       = NewCodeError(ServerInternalError, "ServerInternalError")
	ErrArgs           = NewCodeError(ArgsError, "ArgsError")
	ErrNoPermission   = NewCodeError(NoPermissionError, "NoPermissionError")
	ErrNotLoggedIn    = NewCodeError(NotLoggedInError, "NotLoggedInError")
	ErrRecordNotFound = NewCodeError(RecordNotFoundError, "RecordNotFoundError")
	ErrTransport      = NewCodeError(TransportError, "TransportError")
	ErrDuplicateKey   = NewCodeError(DuplicateKeyError, "DuplicateKeyError")

	ErrTokenInvalid = NewCodeError(TokenInvalidError, "TokenInvalidError")
	ErrTokenExpired = NewCodeError(TokenExpiredError, "TokenExpiredError")
	ErrTokenRevoked = NewCodeError(TokenRevokedError, "TokenRevokedError")
)

func init() {
	// every token failure is also an invalid token for callers that only
	// check ErrTokenInvalid
	_ = DefaultCodeRelation.Add(TokenInvalidError, TokenExpiredError)
	_ = DefaultCodeRelation.Add(TokenInvalidError, TokenRevokedError)
}

// HTTPStatus maps an error code onto the status the API answers with.
func HTTPStatus(code int) int {
	switch code {
	case 0:
		return http.StatusOK
	case ArgsError:
		return http.StatusBadRequest
	case NoPermissionError:
		return http.StatusForbidden
	case NotLoggedInError, TokenInvalidError, TokenExpiredError, TokenRevokedError:
		return http.StatusUnauthorized
	case RecordNotFoundError:
		return http.StatusNotFound
	case DuplicateKeyError:
		return http.StatusConflict
	case TransportError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
