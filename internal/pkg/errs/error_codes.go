/*
Package errs provides the custom error type and the application error code
constants shared by REST handlers and the WebSocket relay.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Messaging Errors
const (
	// ErrMessageTooLong indicates that the message body exceeded the length limit.
	ErrMessageTooLong = 2001

	// ErrSelfMessage indicates a message whose sender and receiver are the same user.
	ErrSelfMessage = 2002

	// ErrSenderMismatch indicates a message whose declared sender is not the
	// authenticated connection.
	ErrSenderMismatch = 2003

	// ErrMessageStoreFailed indicates that the message could not be persisted.
	ErrMessageStoreFailed = 2004

	// ErrMessageNotFound indicates that the requested message does not exist
	// or the caller is not one of its participants.
	ErrMessageNotFound = 2005
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrInvalidUsername indicates a username outside the allowed format.
	ErrInvalidUsername = 3001

	// ErrInvalidPassword indicates a password outside the allowed length.
	ErrInvalidPassword = 3002

	// ErrUserAlreadyExists indicates the username is already taken.
	ErrUserAlreadyExists = 3003

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = 3004

	// ErrUserNotFound indicates the requested user account does not exist.
	ErrUserNotFound = 3005

	// ErrUnauthorized indicates a missing or unusable identity.
	ErrUnauthorized = 3006

	// ErrSessionExpired indicates an expired token. Responses carrying this
	// code set the logout flag so the client clears its session.
	ErrSessionExpired = 3007

	// ErrAlreadyLoggedIn indicates a login/register attempt with a live session.
	ErrAlreadyLoggedIn = 3008

	// ErrSessionReplaced indicates the connection was closed because the same
	// user opened a newer one.
	ErrSessionReplaced = 3009
)

// 4xxx: Storage Errors
const (
	// ErrStorageDisabled indicates avatar storage is not configured on this deployment.
	ErrStorageDisabled = 4001

	// ErrFileStorageFailed indicates a presign or delete call to object storage failed.
	ErrFileStorageFailed = 4002

	// ErrFileTypeInvalid indicates an avatar file type outside the allowed set.
	ErrFileTypeInvalid = 4003

	// ErrFileSizeTooLarge indicates an avatar upload exceeding the size limit.
	ErrFileSizeTooLarge = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
