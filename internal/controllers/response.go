package controllers

import (
	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, messages ...string) {
	c.JSON(status, gin.H{
		"success":  false,
		"messages": messages,
	})
}
