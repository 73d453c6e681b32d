package handlers

import "github.com/gin-gonic/gin"

// getAdminID extracts the authenticated admin's user id from gin context.
func getAdminID(c *gin.Context) uint64 {
	val, exists := c.Get("userID")
	if !exists {
		return 0
	}
	id, ok := val.(uint64)
	if !ok {
		return 0
	}
	return id
}
