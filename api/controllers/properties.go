package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jordanmarch/upkeep-backend/api/responses"
	"github.com/jordanmarch/upkeep-backend/api/validators"
	"github.com/jordanmarch/upkeep-backend/internal/properties"
	"github.com/jordanmarch/upkeep-backend/pkg/enums"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
)

type propertyCreateRequest struct {
	Address        string  `json:"address" validate:"required,min=1"`
	Type           string  `json:"type" validate:"required"`
	Notes          *string `json:"notes,omitempty"`
	PhotoURL       *string `json:"photo_url,omitempty"`
	HistoryVisible *bool   `json:"history_visible,omitempty"`
}

func (r propertyCreateRequest) toInput() (properties.CreatePropertyInput, error) {
	propertyType, err := enums.ParsePropertyType(r.Type)
	if err != nil {
		return properties.CreatePropertyInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property type")
	}
	return properties.CreatePropertyInput{
		Address:        strings.TrimSpace(r.Address),
		Type:           propertyType,
		Notes:          r.Notes,
		PhotoURL:       r.PhotoURL,
		HistoryVisible: r.HistoryVisible,
	}, nil
}

// PropertyCreate registers a property owned by the signed-in user.
func PropertyCreate(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload propertyCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.Create(r.Context(), uid, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, property)
	}
}

// PropertyDetail returns one property the user can view.
func PropertyDetail(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.GetByID(r.Context(), uid, propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, property)
	}
}

// PropertyList returns every property the user owns or was granted.
func PropertyList(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListForUser(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type propertyUpdateRequest struct {
	OwnerID        *uuid.UUID `json:"owner_id,omitempty"`
	Address        *string    `json:"address,omitempty" validate:"omitempty,min=1"`
	Type           *string    `json:"type,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	PhotoURL       *string    `json:"photo_url,omitempty"`
	Status         *string    `json:"status,omitempty"`
	HistoryVisible *bool      `json:"history_visible,omitempty"`
}

func (r propertyUpdateRequest) toInput() (properties.UpdatePropertyInput, error) {
	input := properties.UpdatePropertyInput{
		OwnerID:        r.OwnerID,
		Address:        r.Address,
		Notes:          r.Notes,
		PhotoURL:       r.PhotoURL,
		HistoryVisible: r.HistoryVisible,
	}
	if r.Type != nil {
		propertyType, err := enums.ParsePropertyType(*r.Type)
		if err != nil {
			return properties.UpdatePropertyInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property type")
		}
		input.Type = &propertyType
	}
	if r.Status != nil {
		status, err := enums.ParsePropertyStatus(*r.Status)
		if err != nil {
			return properties.UpdatePropertyInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid property status")
		}
		input.Status = &status
	}
	return input, nil
}

// PropertyUpdate mutates the allowed fields. An owner_id in the payload is
// accepted and ignored; ownership never changes after creation.
func PropertyUpdate(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload propertyUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.Update(r.Context(), uid, propertyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, property)
	}
}

// PropertyDelete removes the property and everything hanging off it.
func PropertyDelete(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), uid, propertyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}

type propertyShareRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// PropertyShare grants or updates another user's access to the property.
func PropertyShare(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload propertyShareRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetID, err := uuid.Parse(strings.TrimSpace(payload.UserID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id"))
			return
		}

		role, err := enums.ParseShareRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid share role"))
			return
		}

		property, err := svc.Share(r.Context(), uid, propertyID, targetID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, property)
	}
}

// PropertyUnshare revokes a grant; revoking a missing grant succeeds.
func PropertyUnshare(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		targetID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		property, err := svc.Unshare(r.Context(), uid, propertyID, targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, property)
	}
}

// PropertyPermissions reports the caller's capabilities on the property.
// Unknown and unshared properties both resolve to the none role.
func PropertyPermissions(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "property service unavailable"))
			return
		}

		uid, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		propertyID, err := pathUUID(r, "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		permissions, err := svc.ResolvePermissions(r.Context(), uid, propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, permissions)
	}
}
