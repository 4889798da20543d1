package auth

// Known OAuth scopes used by the logbook API.
const (
	ScopeActivitiesWrite = "activities:write"
	ScopeActivitiesRead  = "activities:read"
)

// Allows reports whether the claims grant scope. Write access implies read.
func (c *Claims) Allows(scope string) bool {
	if c.HasScope(scope) {
		return true
	}
	return scope == ScopeActivitiesRead && c.HasScope(ScopeActivitiesWrite)
}
