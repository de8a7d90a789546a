package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by the auth middleware.
const (
	CtxUserID    = "userID"
	CtxUserEmail = "userEmail"
)

// currentUser returns the authenticated caller's identity from the request
// context. The bool is false when the middleware did not run.
func currentUser(c *gin.Context) (userID, email string, ok bool) {
	userID = strings.TrimSpace(c.GetString(CtxUserID))
	email = strings.TrimSpace(c.GetString(CtxUserEmail))
	return userID, email, userID != ""
}
