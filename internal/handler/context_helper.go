package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/responsainveniree/student-info-api/internal/middleware"
	"github.com/responsainveniree/student-info-api/internal/models"
	appErrors "github.com/responsainveniree/student-info-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func invalidPayload(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}

// queryDate parses an optional YYYY-MM-DD query value as midnight in loc.
func queryDate(c *gin.Context, key string, loc *time.Location) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, invalidPayload(err, key+" must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}
