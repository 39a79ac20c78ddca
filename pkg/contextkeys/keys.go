package contextkeys

type contextKey string

const (
	UserIDKey  contextKey = "UserID"
	ClaimsKey  contextKey = "Claims"
	IsAdminKey contextKey = "IsAdmin"
)
