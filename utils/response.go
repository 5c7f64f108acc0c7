package utils

import "github.com/gin-gonic/gin"

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONFieldError is used for validation failures so the form can highlight the field.
func JSONFieldError(c *gin.Context, code int, field, message string) {
	c.JSON(code, gin.H{"success": false, "error": message, "field": field})
}
