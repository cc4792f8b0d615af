package code

// Success codes
var (
	Success         = NewSuss(200, "Success")
	SuccessNoUpdate = NewSuss(201, "No update needed")
)

// Common errors
var (
	ErrorInvalidParams       = NewError(10001, "Invalid request parameters")
	ErrorInternal            = NewError(10002, "Internal server error")
	ErrorRequestTimeout      = NewError(10003, "Request timeout")
	ErrorTooManyRequests     = NewError(10004, "Too many requests")
	ErrorNotFoundAPI         = NewError(10005, "API not found")
	ErrorNotSessionToken     = NewError(10101, "Session token required")
	ErrorInvalidSessionToken = NewError(10102, "Invalid or expired session token")
	ErrorInvalidShareToken   = NewError(10103, "Invalid or expired share token")
)

// Storage layer errors
var (
	ErrorStoreRead       = NewError(20001, "Storage read failed")
	ErrorStoreWrite      = NewError(20002, "Storage write failed")
	ErrorStoreConnection = NewError(20003, "Storage connection failed")
)

// Changeset errors
var (
	ErrorChangesetFetchFailed  = NewError(20101, "Failed to fetch changes")
	ErrorChangeAppendFailed    = NewError(20102, "Failed to append change")
	ErrorSyncConflict          = NewError(20103, "Change position conflict, retries exhausted")
	ErrorChangesetDeleteFailed = NewError(20104, "Failed to delete changeset")
	ErrorSnapshotFailed        = NewError(20105, "Failed to reconstruct document snapshot")
)

// Session errors
var (
	ErrorSessionNotFound     = NewError(20201, "Session not found")
	ErrorSessionCreateFailed = NewError(20202, "Failed to create session")
	ErrorSessionDeleteFailed = NewError(20203, "Failed to delete session")
)

// User errors
var (
	ErrorUserNotFound       = NewError(20301, "User not found")
	ErrorUserSignupFailed   = NewError(20302, "Failed to sign up user")
	ErrorUserSignupDisabled = NewError(20303, "Signup is disabled")
	ErrorInvalidLoginKey    = NewError(20304, "Invalid login key")
	ErrorUserLoginFailed    = NewError(20305, "Failed to log in")
)

// Document errors
var (
	ErrorDocumentNotFound     = NewError(20401, "Document not found")
	ErrorDocumentCreateFailed = NewError(20402, "Failed to create document")
	ErrorDocumentDeleteFailed = NewError(20403, "Failed to delete document")
	ErrorDocumentListFailed   = NewError(20404, "Failed to list documents")
)
