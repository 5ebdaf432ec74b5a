package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	bindentities "github.com/strataml/strata/pkg/api-types-binding/entities"
	apierr "github.com/strataml/strata/pkg/api/types/errors"
	"github.com/strataml/strata/pkg/domain"
	domerr "github.com/strataml/strata/pkg/domain/errors"
	"github.com/strataml/strata/pkg/domain/gateway"
)

const (
	HeaderEntityID   = "X-Entity-Id"
	HeaderEntityType = "X-Entity-Type"

	// HeaderTier tells which tier a read was served from.
	HeaderTier = "X-Tier"
)

// RegisterEntityHandler handles entity registration. The request body is the
// raw payload; identity comes from headers. New entities are always born hot.
func RegisterEntityHandler(gw gateway.Interface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		entityID := c.Request().Header.Get(HeaderEntityID)
		if entityID == "" {
			return apierr.BadRequest(`header "X-Entity-Id" is required`, nil)
		}
		entityType, err := domain.AsEntityType(c.Request().Header.Get(HeaderEntityType))
		if err != nil {
			return apierr.BadRequest(
				`header "X-Entity-Type" should be one of: model-weight, conversation-context, generated-artifact`,
				err,
			)
		}

		if _, err := gw.Placement(ctx, entityID); err == nil {
			return apierr.Conflict("entity already registered")
		} else if !errors.Is(err, domerr.ErrMissing) {
			return apierr.InternalServerError(err)
		}

		payload, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apierr.BadRequest("can not read request body", err)
		}

		record, err := gw.Write(ctx, entityID, entityType, payload)
		if err != nil {
			if errors.Is(err, domerr.ErrUnavailable) {
				return apierr.ServiceUnavailable("hot backend is unreachable; retry later", err)
			}
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindentities.ComposeDetail(record))
	}
}

// OverwriteEntityHandler replaces the payload of a registered entity.
// The overwrite lands hot whatever tier the entity was in before.
func OverwriteEntityHandler(gw gateway.Interface, entityIDParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		entityID := c.Param(entityIDParam)

		current, err := gw.Placement(ctx, entityID)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		payload, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return apierr.BadRequest("can not read request body", err)
		}

		record, err := gw.Write(ctx, entityID, current.EntityType, payload)
		if err != nil {
			switch {
			case errors.Is(err, domerr.ErrUnavailable):
				return apierr.ServiceUnavailable("hot backend is unreachable; retry later", err)
			case errors.Is(err, domerr.ErrVersionConflict):
				return apierr.Conflict(
					"placement kept moving during the overwrite",
					apierr.WithAdvice("retry the request"),
					apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindentities.ComposeDetail(record))
	}
}

// ReadEntityHandler serves the payload bytes. Non-hot entities are promoted
// before serving unless the caller passes ?promote=false; the X-Tier response
// header names the tier the payload was served from.
func ReadEntityHandler(gw gateway.Interface, entityIDParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		entityID := c.Param(entityIDParam)
		allowStale := c.QueryParam("promote") == "false"

		payload, servedFrom, err := gw.Read(ctx, entityID, allowStale)
		if err != nil {
			switch {
			case errors.Is(err, domerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, domerr.ErrInconsistent):
				return apierr.Conflict(
					"placement is inconsistent",
					apierr.WithAdvice("a payload the tracker points at is gone; operator attention is required"),
					apierr.WithError(err),
				)
			case errors.Is(err, domerr.ErrUnavailable):
				return apierr.ServiceUnavailable("a tier backend is unreachable; retry later", err)
			case errors.Is(err, domerr.ErrVersionConflict):
				return apierr.Conflict(
					"placement kept moving during the read",
					apierr.WithAdvice("retry the request"),
					apierr.WithError(err),
				)
			}
			return apierr.InternalServerError(err)
		}

		c.Response().Header().Set(HeaderTier, servedFrom.String())
		return c.Blob(http.StatusOK, "application/octet-stream", payload)
	}
}

// DeleteEntityHandler removes record and payload. Deleting twice is a miss:
// the second call finds nothing and reports 404.
func DeleteEntityHandler(gw gateway.Interface, entityIDParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		entityID := c.Param(entityIDParam)

		if err := gw.Delete(ctx, entityID); err != nil {
			switch {
			case errors.Is(err, domerr.ErrMissing):
				return apierr.NotFound()
			case errors.Is(err, domerr.ErrVersionConflict):
				return apierr.Conflict(
					"entity is in transition",
					apierr.WithAdvice("retry the request"),
					apierr.WithError(err),
				)
			case errors.Is(err, domerr.ErrUnavailable):
				return apierr.ServiceUnavailable("a tier backend is unreachable; retry later", err)
			}
			return apierr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// GetPlacementHandler reports where an entity lives without touching it.
func GetPlacementHandler(gw gateway.Interface, entityIDParam string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		entityID := c.Param(entityIDParam)

		record, err := gw.Placement(ctx, entityID)
		if errors.Is(err, domerr.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindentities.ComposeDetail(record))
	}
}
