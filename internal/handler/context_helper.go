package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/biblioteca-api/internal/middleware"
	"github.com/noah-isme/biblioteca-api/internal/models"
)

func sessionFromContext(c *gin.Context) *models.Session {
	return middleware.SessionValue(c)
}
