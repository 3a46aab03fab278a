package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domainauth "trustlens-server-go/internal/domain/auth"
	"trustlens-server-go/internal/utils"
)

// SubjectKey is the gin context key holding the verified token subject.
const SubjectKey = "auth.subject"

// BearerAuth rejects requests without a valid "Authorization: Bearer <jwt>".
func BearerAuth(tokens *domainauth.AuthToken, logger *utils.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = utils.DefaultLogger
	}
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			AbortWithError(c, http.StatusUnauthorized, "missing bearer token")
			return
		}

		subject, err := tokens.VerifyToken(strings.TrimSpace(header[len("Bearer "):]))
		if err != nil {
			logger.WarnTag("Auth", "token rejected for %s: %v", c.Request.URL.Path, err)
			AbortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(SubjectKey, subject)
		c.Next()
	}
}
