package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/malamapl09/Picker-Scheduler/internal/api/middleware"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// MustGetIdentity extracts the caller injected by JWTAuth. When it is missing
// a 401 is written and ok is false; the caller should return.
func MustGetIdentity(c *gin.Context) (jwt.Identity, bool) {
	v, exists := c.Get(middleware.ContextIdentity)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return jwt.Identity{}, false
	}
	id, ok := v.(jwt.Identity)
	if !ok || id.UserID == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return jwt.Identity{}, false
	}
	return id, true
}

// MustGetClaims the parsed access token, for logout.
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ContextClaims)
	if !exists {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok {
		response.Unauthorized(c, 10002, "not authenticated")
		return nil, false
	}
	return claims, true
}

// fieldError one failed binding rule.
type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// bindFailed writes a 400 listing the failed fields when err came from the
// validator, and the bare message otherwise.
func bindFailed(c *gin.Context, code int, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, code, "invalid parameters", details)
		return
	}
	response.BadRequest(c, code, "invalid parameters")
}

// queryBool a boolean query flag; absent or unparseable is false.
func queryBool(c *gin.Context, key string) bool {
	b, err := strconv.ParseBool(c.Query(key))
	return err == nil && b
}
