package pages

import (
	"context"
	"net/url"

	"github.com/a-h/templ"

	"github.com/mcoot/creaturegame/internal/web/templates/layout"
)

// LoginData holds data for the login page
type LoginData struct {
	layout.PageData
	Next          string
	Email         string
	Error         string
	GoogleEnabled bool
}

// Login renders the sign-in form
func Login(data LoginData) templ.Component {
	if data.Title == "" {
		data.Title = "Log in"
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="auth"><h1>Log in</h1>`)
		formError(h, data.Error)

		h.Raw(`<form id="login-form" method="post" action="/login">`)
		hiddenNext(h, data.Next)
		h.Raw(`<label>Email <input type="email" name="email" required`)
		h.Attr("value", data.Email)
		h.Raw(`></label>`)
		h.Raw(`<label>Password <input type="password" name="password" required></label>`)
		h.Raw(`<button type="submit">Log in</button></form>`)

		if data.GoogleEnabled {
			h.Raw(`<a class="google-signin" href="/auth/google`)
			if data.Next != "" {
				h.Raw("?next=")
				h.Text(url.QueryEscape(data.Next))
			}
			h.Raw(`">Continue with Google</a>`)
		}

		h.Raw(`<p><a href="/forgot-password">Forgot your password?</a></p>`)
		h.Raw(`<p>New here? <a href="/register">Create an account</a></p>`)
		h.Raw("</section>\n")
	}))
}

// RegisterData holds data for the registration page
type RegisterData struct {
	layout.PageData
	Email       string
	Username    string
	Error       string
	FieldErrors map[string]string
}

// Register renders the sign-up form
func Register(data RegisterData) templ.Component {
	if data.Title == "" {
		data.Title = "Sign up"
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="auth"><h1>Create an account</h1>`)
		formError(h, data.Error)

		h.Raw(`<form id="register-form" method="post" action="/register">`)
		h.Raw(`<label>Email <input type="email" name="email" required`)
		h.Attr("value", data.Email)
		h.Raw(`></label>`)
		fieldError(h, data.FieldErrors, "email")
		h.Raw(`<label>Password <input type="password" name="password" required></label>`)
		fieldError(h, data.FieldErrors, "password")
		h.Raw(`<label>Username <input type="text" name="username" maxlength="30"`)
		h.Attr("value", data.Username)
		h.Raw(`></label>`)
		fieldError(h, data.FieldErrors, "username")
		h.Raw(`<button type="submit">Sign up</button></form>`)
		h.Raw(`<p>Already registered? <a href="/login">Log in</a></p>`)
		h.Raw("</section>\n")
	}))
}

// ForgotPasswordData holds data for the forgot-password page
type ForgotPasswordData struct {
	layout.PageData
	Email string
	Sent  bool
	Error string
}

// ForgotPassword renders the reset request form, or the confirmation once sent
func ForgotPassword(data ForgotPasswordData) templ.Component {
	if data.Title == "" {
		data.Title = "Reset password"
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="auth"><h1>Reset your password</h1>`)
		if data.Sent {
			h.Raw(`<p class="reset-sent">If an account exists for `)
			h.Text(data.Email)
			h.Raw(`, a reset link is on its way.</p>`)
			h.Raw(`<p><a href="/login">Back to log in</a></p></section>` + "\n")
			return
		}
		formError(h, data.Error)
		h.Raw(`<form id="forgot-form" method="post" action="/forgot-password">`)
		h.Raw(`<label>Email <input type="email" name="email" required`)
		h.Attr("value", data.Email)
		h.Raw(`></label><button type="submit">Send reset link</button></form>`)
		h.Raw("</section>\n")
	}))
}

// ResetPasswordData holds data for the reset-password page
type ResetPasswordData struct {
	layout.PageData
	Token string
	Error string
}

// ResetPassword renders the new-password form for a reset link
func ResetPassword(data ResetPasswordData) templ.Component {
	if data.Title == "" {
		data.Title = "Choose a new password"
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="auth"><h1>Choose a new password</h1>`)
		formError(h, data.Error)
		h.Raw(`<form id="reset-form" method="post" action="/reset-password">`)
		h.Raw(`<input type="hidden" name="token"`)
		h.Attr("value", data.Token)
		h.Raw(`><label>New password <input type="password" name="password" required></label>`)
		h.Raw(`<button type="submit">Update password</button></form>`)
		h.Raw("</section>\n")
	}))
}

func hiddenNext(h *layout.Writer, next string) {
	if next == "" {
		return
	}
	h.Raw(`<input type="hidden" name="next"`)
	h.Attr("value", next)
	h.Raw(">")
}
