package constants

const (
	// Context keys
	ContextKeyUserID     = "user_id"
	ContextKeyClaims     = "token_claims"
	ContextKeyWorkspace  = "workspace"
	ContextKeyAccessRole = "workspace_role"

	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// Validation limits
	MinPasswordLength      = 6
	// bcrypt only accepts up to 72 bytes
	MaxPasswordBytes       = 72
	MaxNameLength          = 255
	MaxWorkspaceNameLength = 255
	MaxDescriptionLength   = 1000

	// Pagination
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// InvitationTokenBytes is the amount of random data behind each invitation token.
	InvitationTokenBytes = 32

	// InvitePath is appended to the frontend URL in invitation links.
	InvitePath = "/invite/"
)
