// Package handlers implements the HTTP endpoint handlers. Handlers stay
// thin: they validate input, call into the domain packages and shape the
// response.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ContextUserIDKey is the gin context key the auth middleware stores the
// authenticated user ID under.
const ContextUserIDKey = "user_id"

const dateLayout = "2006-01-02"

// UserID returns the authenticated user ID from the request context.
func UserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint64)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}

// validDate reports whether raw is a calendar date in YYYY-MM-DD form.
func validDate(raw string) bool {
	_, errParse := time.Parse(dateLayout, raw)
	return errParse == nil
}
