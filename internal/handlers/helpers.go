package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/counselor-scheduler/internal/httperr"
	"github.com/BruksfildServices01/counselor-scheduler/internal/middleware"
	"github.com/BruksfildServices01/counselor-scheduler/pkg/logging"
)

func currentUser(c *gin.Context) uint {
	return c.MustGet(middleware.ContextUserID).(uint)
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextUserRole) == middleware.RoleAdmin
}

// fail writes err through the business taxonomy. Anything that maps to 500
// or an InvalidTransition is an internal fault worth an error line.
func fail(c *gin.Context, log *logging.Logger, err error) {
	status, code := httperr.StatusFor(err)
	if status >= 500 || code == httperr.CodeInvalidTransition {
		log.Error("request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.ContextRequestID),
			"error", err,
		)
	}
	httperr.FromError(c, err)
}
