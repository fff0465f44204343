package handlers

import (
	"context"

	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/api/errors"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/domain"
	"github.com/Kuresan8815/akiraka-2658b6d6-sub000/pkg/models"
	"github.com/labstack/echo/v4"
)

// businessScope resolves the caller's capability on a business into a BusinessContext
type businessScope struct {
	access domain.AccessChecker
}

// userID returns the authenticated caller set by the JWT middleware
func userID(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok && id != ""
}

// resolve asks the access policy whether the caller may manage businessID. It writes the
// error response itself and returns handled=true when the request must stop.
func (s businessScope) resolve(ctx context.Context, c echo.Context, businessID string) (models.BusinessContext, bool, error) {
	uid, ok := userID(c)
	if !ok {
		return models.BusinessContext{}, true, errors.UnauthorizedError(c)
	}

	allowed, err := s.access.CanManageBusiness(ctx, uid, businessID)
	if err != nil {
		return models.BusinessContext{}, true, errors.InternalError(c, err)
	}
	if !allowed {
		return models.BusinessContext{}, true, errors.ForbiddenError(c)
	}

	return models.BusinessContext{UserID: uid, BusinessID: businessID, CanWrite: true}, false, nil
}
