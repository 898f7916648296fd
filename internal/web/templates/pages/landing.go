// Package pages renders the full pages of the web interface.
package pages

import (
	"context"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/creaturegame/internal/services/blog"
	"github.com/mcoot/creaturegame/internal/web/templates/layout"
)

// LandingData holds data for the landing page
type LandingData struct {
	layout.PageData
	Posts []blog.Post
}

// Landing renders the marketing page
func Landing(data LandingData) templ.Component {
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="hero" id="hero">`)
		h.Raw(`<h1>Build a creature. Battle the world.</h1>`)
		h.Raw(`<p>Assemble creatures from parts you gather, then test them against other players.</p>`)
		if data.Viewer != nil && data.Viewer.Identity != nil {
			h.Raw(`<a class="cta" href="/game-start">Continue to the game</a>`)
		} else {
			h.Raw(`<a class="cta" href="/register">Create an account</a> <a href="/login">Log in</a>`)
		}
		h.Raw("</section>\n")

		h.Raw(`<section class="phases" id="phases">`)
		for _, phase := range landingPhases {
			h.Raw(`<article class="phase"><h2>`)
			h.Text(phase.title)
			h.Raw(`</h2><p>`)
			h.Text(phase.body)
			h.Raw(`</p></article>`)
		}
		h.Raw("</section>\n")

		blogSection(h, data.Posts)
	}))
}

var landingPhases = []struct {
	title string
	body  string
}{
	{"Gather", "Explore the world and collect parts for your creatures."},
	{"Craft", "Combine parts into a creature with its own strengths."},
	{"Battle", "Face other players in ranked matches and climb the ladder."},
}

// Loading renders the placeholder shown while the session settles.
// The page refreshes itself until the session is ready.
func Loading(data layout.PageData) templ.Component {
	if data.Title == "" {
		data.Title = "Loading"
	}
	if data.RefreshSeconds <= 0 {
		data.RefreshSeconds = 1
	}
	return layout.Layout(data, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<div class="loading" id="session-loading" role="status">`)
		h.Raw(`<div class="spinner"></div><p>Loading your session…</p>`)
		h.Raw("</div>\n")
	}))
}

// ErrorData holds data for the error page
type ErrorData struct {
	layout.PageData
	Status  int
	Message string
}

// ErrorPage renders a full-page error
func ErrorPage(data ErrorData) templ.Component {
	if data.Title == "" {
		data.Title = http.StatusText(data.Status)
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="error-page">`)
		h.Rawf(`<h1 class="error-status">%d</h1>`, data.Status)
		h.Raw(`<p class="error-message">`)
		h.Text(data.Message)
		h.Raw(`</p><p><a href="/">Return to home</a></p>`)
		h.Raw("</section>\n")
	}))
}
