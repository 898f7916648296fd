package handler

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/services/session"
	"github.com/mcoot/creaturegame/internal/web/middleware"
	"github.com/mcoot/creaturegame/internal/web/templates/layout"
	"github.com/mcoot/creaturegame/internal/web/templates/pages"
)

// pageData builds the common page data for the current request
func pageData(r *http.Request, title string) layout.PageData {
	return layout.PageData{
		Title:  title,
		Viewer: middleware.ViewerOf(middleware.CurrentSnapshot(r.Context())),
		Flash:  middleware.GetFlash(r.Context()),
	}
}

func render(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logger.Error("failed to render page", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

// controllerOrFail returns the request's session controller, writing an error page if there is none
func controllerOrFail(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *session.Controller {
	c := middleware.GetController(r.Context())
	if c == nil {
		logger.Error("no session controller bound to request", slog.String("path", r.URL.Path))
		render(w, r, logger, http.StatusInternalServerError, pages.ErrorPage(pages.ErrorData{
			PageData: pageData(r, ""),
			Status:   http.StatusInternalServerError,
			Message:  "Your session could not be loaded.",
		}))
	}
	return c
}

// statusFor maps an error kind to the status a form page is re-rendered with
func statusFor(err error) int {
	switch model.KindOf(err) {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindInvalidCredentials, model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindAlreadyExists:
		return http.StatusConflict
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindTransportFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage turns an error into text for a form
func errorMessage(err error) string {
	switch model.KindOf(err) {
	case model.KindInvalidCredentials:
		return "Incorrect email or password."
	case model.KindUnauthenticated:
		return "Please log in to continue."
	case model.KindAlreadyExists:
		return model.Message(err, "That already exists.")
	case model.KindInvalidInput, model.KindNotFound:
		return model.Message(err, "Please check your input.")
	case model.KindProfileInconsistency:
		return "Your account has no player profile yet."
	case model.KindTransportFailure:
		return "We couldn't reach the server. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
