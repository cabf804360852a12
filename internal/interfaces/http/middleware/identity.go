package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/walletwise/walletwise/internal/shared/constants"
	"github.com/walletwise/walletwise/internal/shared/errors"
	"github.com/walletwise/walletwise/internal/shared/logger"
	"github.com/walletwise/walletwise/internal/shared/utils"
	"github.com/walletwise/walletwise/internal/shared/utils/logutil"
)

// IdentityMiddleware trusts the user id forwarded by the upstream gateway,
// which has already authenticated the caller.
type IdentityMiddleware struct {
	logger logger.Interface
}

func NewIdentityMiddleware(logger logger.Interface) *IdentityMiddleware {
	return &IdentityMiddleware{logger: logger}
}

func (m *IdentityMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(constants.HeaderXUserID)
		if raw == "" {
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("missing user identity"))
			c.Abort()
			return
		}

		userID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || userID == 0 {
			m.logger.Warnw("invalid user identity header", "value", logutil.TruncateForLog(raw, 32), "path", c.Request.URL.Path)
			utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("invalid user identity"))
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, uint(userID))
		c.Next()
	}
}
