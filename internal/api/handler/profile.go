package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/creaturegame/internal/api/middleware"
	"github.com/mcoot/creaturegame/internal/api/request"
	"github.com/mcoot/creaturegame/internal/api/response"
	"github.com/mcoot/creaturegame/internal/model"
)

// ProfileHandler handles the signed-in user's profile
type ProfileHandler struct{}

// NewProfileHandler creates a new profile handler
func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// Get handles GET /api/v1/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := middleware.MustGetController(r.Context()).Snapshot()
	if snap.Profile == nil {
		err := snap.Err
		if err == nil {
			err = model.ErrMissingProfile
		}
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.ProfileFromModel(snap.Profile))
}

// Update handles PATCH /api/v1/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	update := model.ProfileUpdate{
		Username:        req.Username,
		ProfileImageURL: req.ProfileImageURL,
	}
	if update.IsEmpty() {
		WriteError(w, model.ErrEmptyUpdate)
		return
	}

	ctrl := middleware.MustGetController(r.Context())
	if err := ctrl.UpdateProfile(r.Context(), update); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(ctrl.Snapshot().Profile))
}

// Repair handles POST /api/v1/profile, creating the profile of an account that has none
func (h *ProfileHandler) Repair(w http.ResponseWriter, r *http.Request) {
	var req request.RepairProfileRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, NewInvalidRequestError("invalid request body"))
			return
		}
	}

	ctrl := middleware.MustGetController(r.Context())
	if err := ctrl.RepairProfile(r.Context(), req.Username); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.ProfileFromModel(ctrl.Snapshot().Profile))
}
