package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/blog"
	"github.com/mcoot/creaturegame/internal/web/middleware"
	"github.com/mcoot/creaturegame/internal/web/templates/pages"
)

// Posts provides the diary entries shown on public pages
type Posts interface {
	List() []blog.Post
	Get(slug string) (blog.Post, error)
}

// PageHandler renders the public pages and the signed-in game pages
type PageHandler struct {
	posts  Posts
	logger *slog.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(posts Posts, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		posts:  posts,
		logger: logger.With(slog.String("component", "web-pages")),
	}
}

// Landing renders the marketing page
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.Landing(pages.LandingData{
		PageData: pageData(r, ""),
		Posts:    h.posts.List(),
	}))
}

// BlogPost renders one diary entry
func (h *PageHandler) BlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(mux.Vars(r)["slug"])
	if err != nil {
		render(w, r, h.logger, http.StatusNotFound, pages.ErrorPage(pages.ErrorData{
			PageData: pageData(r, "Not found"),
			Status:   http.StatusNotFound,
			Message:  "That post does not exist.",
		}))
		return
	}
	render(w, r, h.logger, http.StatusOK, pages.BlogPost(pages.BlogPostData{
		PageData: pageData(r, ""),
		Post:     post,
	}))
}

// About renders the about page
func (h *PageHandler) About(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.logger, http.StatusOK, pages.About(pageData(r, "")))
}

// GameStart renders the post-login landing page
func (h *PageHandler) GameStart(w http.ResponseWriter, r *http.Request) {
	h.renderGameStart(w, r, http.StatusOK, nil)
}

// UpdateProfile saves the profile form
func (h *PageHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerOrFail(w, r, h.logger)
	if ctrl == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderGameStart(w, r, http.StatusBadRequest, map[string]string{"username": "Invalid form data"})
		return
	}

	current := ctrl.Snapshot().Profile
	if current == nil {
		middleware.SetFlash(w, "error", errorMessage(model.ErrMissingProfile))
		http.Redirect(w, r, "/game-start", http.StatusSeeOther)
		return
	}

	var update model.ProfileUpdate
	if username := strings.TrimSpace(r.FormValue("username")); username != current.Username {
		update.Username = &username
	}
	if imageURL := strings.TrimSpace(r.FormValue("profile_image_url")); imageURL != current.ProfileImageURL {
		update.ProfileImageURL = &imageURL
	}
	if update.IsEmpty() {
		middleware.SetFlash(w, "info", "No changes to save.")
		http.Redirect(w, r, "/game-start", http.StatusSeeOther)
		return
	}

	if err := ctrl.UpdateProfile(r.Context(), update); err != nil {
		field := formField(err)
		if field == "" && model.KindOf(err) == model.KindInvalidInput {
			field = "profile_image_url"
		}
		if field == "" {
			middleware.SetFlash(w, "error", errorMessage(err))
			http.Redirect(w, r, "/game-start", http.StatusSeeOther)
			return
		}
		h.renderGameStart(w, r, statusFor(err), map[string]string{field: errorMessage(err)})
		return
	}

	middleware.SetFlash(w, "success", "Profile saved.")
	http.Redirect(w, r, "/game-start", http.StatusSeeOther)
}

// RepairProfile creates the profile of an account that has none
func (h *PageHandler) RepairProfile(w http.ResponseWriter, r *http.Request) {
	ctrl := controllerOrFail(w, r, h.logger)
	if ctrl == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderGameStart(w, r, http.StatusBadRequest, map[string]string{"username": "Invalid form data"})
		return
	}

	if err := ctrl.RepairProfile(r.Context(), r.FormValue("username")); err != nil {
		if model.KindOf(err) == model.KindInvalidInput {
			h.renderGameStart(w, r, statusFor(err), map[string]string{"username": errorMessage(err)})
			return
		}
		middleware.SetFlash(w, "error", errorMessage(err))
	} else {
		middleware.SetFlash(w, "success", "Profile created.")
	}
	http.Redirect(w, r, "/game-start", http.StatusSeeOther)
}

// Play renders the game container
func (h *PageHandler) Play(w http.ResponseWriter, r *http.Request) {
	snap := middleware.CurrentSnapshot(r.Context())
	render(w, r, h.logger, http.StatusOK, pages.Play(pages.PlayData{
		PageData: pageData(r, "Play"),
		Profile:  snap.Profile,
	}))
}

func (h *PageHandler) renderGameStart(w http.ResponseWriter, r *http.Request, status int, fieldErrors map[string]string) {
	snap := middleware.CurrentSnapshot(r.Context())
	data := pages.GameStartData{
		PageData:    pageData(r, "Game start"),
		Profile:     snap.Profile,
		FieldErrors: fieldErrors,
	}
	if snap.Profile == nil && snap.Err != nil {
		data.ProfileError = errorMessage(snap.Err)
	}
	render(w, r, h.logger, status, pages.GameStart(data))
}
