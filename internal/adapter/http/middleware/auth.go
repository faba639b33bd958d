package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmimerNabil/achieveai/internal/core/domain"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
	"github.com/AmimerNabil/achieveai/pkg/apierrors"
)

const identityKey = "identity"

// AuthMiddleware verifies the bearer identity token and stores the caller's
// identity on the context. Requests without a valid token get a 401.
func AuthMiddleware(verifier ports.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c)
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			zap.L().Debug("rejected identity token", zap.Error(err))
			abortUnauthorized(c)
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// GetIdentity returns the identity set by AuthMiddleware.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	if value, exists := c.Get(identityKey); exists {
		if identity, ok := value.(domain.Identity); ok && identity.Subject != "" {
			return identity, true
		}
	}
	return domain.Identity{}, false
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(
		http.StatusUnauthorized,
		apierrors.CreateError(http.StatusUnauthorized, apierrors.MsgUnauthorized, GetLang(c)),
	)
}
