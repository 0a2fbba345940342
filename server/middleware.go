package server

import (
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/services/jwt"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	goerrors "errors"
)

// Authorize resolves the bearer token into an explicit actor id on the
// context. Handlers pass that id into every core operation; no core code
// reads identity from ambient state.
func (s *Server) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := getTokenFromHeader(c)
		if accessToken == "" {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errors.New("unauthorized", http.StatusUnauthorized))
			return
		}

		if s.AuthRepository.IsTokenInBlacklist(accessToken) {
			respondAndAbort(c, "access token is revoked", http.StatusUnauthorized, nil, errors.New("unauthorized", http.StatusUnauthorized))
			return
		}

		secret := s.Config.JWTSecret
		accessClaims, err := jwt.ValidateAndGetClaims(accessToken, secret)
		if err != nil {
			respondAndAbort(c, "", http.StatusUnauthorized, nil, errors.New("unauthorized", http.StatusUnauthorized))
			return
		}

		userID, ok := accessClaims["id"].(string)
		if !ok || userID == "" {
			respondAndAbort(c, "", http.StatusBadRequest, nil, errors.New("invalid userID format", http.StatusBadRequest))
			return
		}

		user, err := s.AuthRepository.FindUserByID(userID)
		if err != nil {
			switch {
			case goerrors.Is(err, gorm.ErrRecordNotFound):
				respondAndAbort(c, "user not found", http.StatusUnauthorized, nil, errors.New(err.Error(), http.StatusUnauthorized))
			default:
				respondAndAbort(c, "unable to find entity", http.StatusInternalServerError, nil, errors.New("internal server error", http.StatusInternalServerError))
			}
			return
		}
		if !user.IsActive {
			respondAndAbort(c, "inactive user", http.StatusUnauthorized, nil, errors.InActiveUserError)
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Set("access_token", accessToken)
		c.Next()
	}
}

func getTokenFromHeader(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

// messageRateLimiter caps how fast one user can post messages.
func messageRateLimiter() gin.HandlerFunc {
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: 5,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			respondAndAbort(c, "too many messages, slow down", http.StatusTooManyRequests, nil,
				errors.New("rate limit exceeded", http.StatusTooManyRequests))
		},
		KeyFunc: func(c *gin.Context) string {
			return c.GetString("userID")
		},
	})
}
