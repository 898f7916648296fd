package pages

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/creaturegame/internal/model"
	"github.com/mcoot/creaturegame/internal/web/templates/layout"
)

// GameStartData holds data for the post-login landing page
type GameStartData struct {
	layout.PageData
	Profile *model.Profile

	// ProfileError explains why Profile is nil
	ProfileError string
	FieldErrors  map[string]string
}

// GameStart renders the player's profile summary and entry to the game.
// A missing profile renders a repair form instead of the summary.
func GameStart(data GameStartData) templ.Component {
	if data.Title == "" {
		data.Title = "Game start"
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="game-start">`)

		if data.Profile == nil {
			h.Raw(`<div class="profile-error" id="profile-error"><h2>We couldn't load your profile</h2><p>`)
			if data.ProfileError != "" {
				h.Text(data.ProfileError)
			} else {
				h.Raw("Your player profile is missing.")
			}
			h.Raw(`</p>`)
			h.Raw(`<form id="repair-form" method="post" action="/game-start/profile/repair">`)
			h.Raw(`<label>Username <input type="text" name="username" maxlength="30"></label>`)
			fieldError(h, data.FieldErrors, "username")
			h.Raw(`<button type="submit">Create profile</button></form></div>`)
			h.Raw("</section>\n")
			return
		}

		p := data.Profile
		h.Raw(`<div class="profile-card" id="profile-card"><h1>Welcome, <span class="profile-username">`)
		h.Text(p.Username)
		h.Raw(`</span></h1>`)
		if p.ProfileImageURL != "" {
			h.Raw(`<img class="profile-image" alt=""`)
			h.Attr("src", p.ProfileImageURL)
			h.Raw(">")
		}
		h.Raw(`<p>Rating: <span class="profile-elo">`)
		h.Text(strconv.Itoa(p.Elo))
		h.Raw(`</span></p>`)
		h.Raw(`<a class="cta" id="play-link" href="/play">Enter the arena</a></div>`)

		h.Raw(`<form id="profile-form" method="post" action="/game-start/profile">`)
		h.Raw(`<label>Username <input type="text" name="username" maxlength="30"`)
		h.Attr("value", p.Username)
		h.Raw(`></label>`)
		fieldError(h, data.FieldErrors, "username")
		h.Raw(`<label>Profile image URL <input type="url" name="profile_image_url"`)
		h.Attr("value", p.ProfileImageURL)
		h.Raw(`></label>`)
		fieldError(h, data.FieldErrors, "profile_image_url")
		h.Raw(`<button type="submit">Save profile</button></form>`)
		h.Raw("</section>\n")
	}))
}

// PlayData holds data for the game container page
type PlayData struct {
	layout.PageData
	Profile *model.Profile
}

// Play renders the game container with its canvas placeholder
func Play(data PlayData) templ.Component {
	if data.Title == "" {
		data.Title = "Play"
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="game-container" id="game-container">`)
		h.Raw(`<canvas id="game-canvas" width="960" height="540"`)
		if data.Profile != nil {
			h.Attr("data-username", data.Profile.Username)
			h.Attr("data-elo", strconv.Itoa(data.Profile.Elo))
		}
		h.Raw(`></canvas>`)
		h.Raw(`<p class="game-placeholder">The arena is under construction.</p>`)
		h.Raw("</section>\n")
	}))
}
