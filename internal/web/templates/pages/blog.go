package pages

import (
	"context"

	"github.com/a-h/templ"

	"github.com/mcoot/creaturegame/internal/services/blog"
	"github.com/mcoot/creaturegame/internal/web/templates/layout"
)

const postDateFormat = "January 2, 2006"

func blogSection(h *layout.Writer, posts []blog.Post) {
	h.Raw(`<section class="blog" id="blog"><h2>From the workshop</h2>`)
	if len(posts) == 0 {
		h.Raw(`<p class="blog-empty">No posts yet.</p></section>` + "\n")
		return
	}
	for _, p := range posts {
		h.Raw(`<article class="blog-summary"><h3>`)
		h.Text(p.Title)
		h.Raw(`</h3><time`)
		h.Attr("datetime", p.Published.Format("2006-01-02"))
		h.Raw(">")
		h.Text(p.Published.Format(postDateFormat))
		h.Raw(`</time><p>`)
		h.Text(p.Summary)
		h.Raw(`</p><a class="read-more"`)
		h.Attr("href", "/blog/"+p.Slug)
		h.Raw(`>Read more</a></article>`)
	}
	h.Raw("</section>\n")
}

// BlogPostData holds data for a single post page
type BlogPostData struct {
	layout.PageData
	Post blog.Post
}

// BlogPost renders one post. The body was sanitized when the post was loaded.
func BlogPost(data BlogPostData) templ.Component {
	if data.Title == "" {
		data.Title = data.Post.Title
	}
	return layout.Layout(data.PageData, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<article class="blog-post" id="blog-post"><h1>`)
		h.Text(data.Post.Title)
		h.Raw(`</h1><time`)
		h.Attr("datetime", data.Post.Published.Format("2006-01-02"))
		h.Raw(">")
		h.Text(data.Post.Published.Format(postDateFormat))
		h.Raw(`</time><div class="blog-body">`)
		h.Raw(data.Post.Body)
		h.Raw(`</div><p><a href="/#blog">Back to all posts</a></p></article>` + "\n")
	}))
}

// About renders the about page
func About(data layout.PageData) templ.Component {
	if data.Title == "" {
		data.Title = "About us"
	}
	return layout.Layout(data, layout.Component(func(ctx context.Context, h *layout.Writer) {
		h.Raw(`<section class="about" id="about"><h1>About us</h1>`)
		h.Raw(`<p>Creature Clash is made by a small team who grew up on creature collectors and pixel art. `)
		h.Raw(`We are building the game in the open and post progress in the workshop diary.</p>`)
		h.Raw(`<p><a href="/#blog">Read the diary</a></p></section>` + "\n")
	}))
}
