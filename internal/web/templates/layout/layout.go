// Package layout holds the site chrome shared by every page.
package layout

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/mcoot/creaturegame/internal/model"
)

// FlashMessage is a one-shot notice shown at the top of the next page
type FlashMessage struct {
	Type    string // "success", "error" or "info"
	Message string
}

// Viewer is the signed-in user as shown in the navigation bar
type Viewer struct {
	Identity *model.Identity
	Profile  *model.Profile
}

// Name returns the best label for the viewer
func (v *Viewer) Name() string {
	if v == nil || v.Identity == nil {
		return ""
	}
	if v.Profile != nil && v.Profile.Username != "" {
		return v.Profile.Username
	}
	if v.Identity.DisplayName != "" {
		return v.Identity.DisplayName
	}
	return v.Identity.Email
}

// PageData holds common data for all pages
type PageData struct {
	Title  string
	Viewer *Viewer
	Flash  *FlashMessage

	// RefreshSeconds, when positive, adds a meta refresh to the page
	RefreshSeconds int
}

// Writer accumulates the first write error so components can emit markup linearly
type Writer struct {
	w   io.Writer
	err error
}

// Raw writes s unescaped
func (h *Writer) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes s HTML-escaped
func (h *Writer) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Rawf writes a formatted string unescaped
func (h *Writer) Rawf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

// Attr writes name="value" with the value escaped
func (h *Writer) Attr(name, value string) {
	h.Raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// Render writes a nested component
func (h *Writer) Render(ctx context.Context, c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(ctx, h.w)
}

// Component adapts a body function to templ.Component
func Component(fn func(ctx context.Context, h *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &Writer{w: w}
		fn(ctx, h)
		return h.err
	})
}

// Layout wraps body in the site chrome
func Layout(data PageData, body templ.Component) templ.Component {
	return Component(func(ctx context.Context, h *Writer) {
		h.Raw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
		if data.RefreshSeconds > 0 {
			h.Rawf(`<meta http-equiv="refresh" content="%d">`+"\n", data.RefreshSeconds)
		}
		h.Raw("<title>")
		if data.Title != "" {
			h.Text(data.Title)
			h.Raw(" - ")
		}
		h.Raw("Creature Clash</title>\n")
		h.Raw(`<link rel="stylesheet" href="/static/css/style.css">` + "\n")
		h.Raw("</head>\n<body>\n")
		h.Render(ctx, nav(data.Viewer))
		h.Raw(`<main class="container">` + "\n")
		if data.Flash != nil {
			h.Raw(`<div class="flash"`)
			h.Attr("data-type", data.Flash.Type)
			h.Raw(">")
			h.Text(data.Flash.Message)
			h.Raw("</div>\n")
		}
		h.Render(ctx, body)
		h.Raw("</main>\n</body>\n</html>\n")
	})
}

func nav(viewer *Viewer) templ.Component {
	return Component(func(ctx context.Context, h *Writer) {
		h.Raw(`<nav class="navbar"><a class="brand" href="/">Creature Clash</a><a class="nav-about" href="/about">About</a>`)
		if viewer != nil && viewer.Identity != nil {
			h.Raw(`<a href="/game-start">Play</a>`)
			h.Raw(`<span class="nav-user">`)
			h.Text(viewer.Name())
			h.Raw(`</span>`)
			h.Raw(`<form class="logout-form" method="post" action="/logout"><button type="submit">Log out</button></form>`)
		} else {
			h.Raw(`<a class="nav-login" href="/login">Log in</a><a class="nav-register" href="/register">Sign up</a>`)
		}
		h.Raw("</nav>\n")
	})
}
