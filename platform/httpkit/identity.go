package httpkit

import "github.com/gin-gonic/gin"

// Identity is the authenticated caller as seen by handlers.
type Identity struct {
	Subject string
	Roles   []string
}

// HasRole checks if the caller has a specific role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAuthenticated reports whether AuthRequired populated the identity.
func (i Identity) IsAuthenticated() bool {
	return i.Subject != ""
}

// GetIdentity extracts the Identity set by AuthRequired.
func GetIdentity(c *gin.Context) Identity {
	var id Identity
	if subject, ok := c.Get(ContextSubjectKey); ok {
		id.Subject, _ = subject.(string)
	}
	if roles, ok := c.Get(ContextRolesKey); ok {
		id.Roles, _ = roles.([]string)
	}
	return id
}
