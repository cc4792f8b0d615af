package logger

// Shared log field names, to keep queries over structured logs consistent.
const (
	// FieldTraceID request trace id
	FieldTraceID = "traceId"

	// FieldUID user id
	FieldUID = "uid"

	// FieldChangeset changeset (document) id
	FieldChangeset = "changeset"

	// FieldVersion changeset version
	FieldVersion = "version"

	// FieldPosition assigned change position
	FieldPosition = "position"

	// FieldSessionToken truncated session token
	FieldSessionToken = "sessionToken"

	// FieldMethod handler or method name
	FieldMethod = "method"

	// FieldDuration elapsed time
	FieldDuration = "duration"

	// FieldError error message
	FieldError = "error"
)
