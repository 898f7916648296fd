package pages

import "github.com/mcoot/creaturegame/internal/web/templates/layout"

// formError renders an inline error block, or nothing for an empty message
func formError(h *layout.Writer, message string) {
	if message == "" {
		return
	}
	h.Raw(`<div class="form-error">`)
	h.Text(message)
	h.Raw("</div>")
}

func fieldError(h *layout.Writer, errs map[string]string, field string) {
	msg, ok := errs[field]
	if !ok || msg == "" {
		return
	}
	h.Raw(`<span class="field-error"`)
	h.Attr("data-field", field)
	h.Raw(">")
	h.Text(msg)
	h.Raw("</span>")
}
