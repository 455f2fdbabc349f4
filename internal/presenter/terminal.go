package presenter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mattn/go-runewidth"

	"github.com/tzidis/newsapp/internal/domain"
)

const (
	DefaultTerminalWidth = 80
	displayDateLayout    = "Mon, Jan 02, 2006"
	latestTitle          = "Latest news"
	noImage              = "(no image)"
)

// Terminal is a line-oriented view. Redraw keeps the current frame; Render prints it.
type Terminal struct {
	w     io.Writer
	width int

	mu    sync.Mutex
	frame []domain.Article
}

// NewTerminal writes to w, truncating lines to width display cells.
func NewTerminal(w io.Writer, width int) *Terminal {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return &Terminal{w: w, width: width}
}

func (t *Terminal) Redraw(articles []domain.Article) {
	t.mu.Lock()
	t.frame = articles
	t.mu.Unlock()
}

// Render prints the title and either the current frame or the result's empty-state message.
func (t *Terminal) Render(res Result) error {
	t.mu.Lock()
	frame := t.frame
	t.mu.Unlock()

	var b strings.Builder
	title := res.Title
	if title == "" {
		title = latestTitle
	}
	b.WriteString(t.fit(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(runewidth.StringWidth(title), t.width)))
	b.WriteString("\n")

	if res.State != StateLoaded || len(frame) == 0 {
		msg := res.Message
		if msg == "" {
			msg = MsgNoArticles
		}
		b.WriteString(msg)
		b.WriteString("\n")
	} else {
		for i, art := range frame {
			b.WriteString("\n")
			t.writeArticle(&b, i+1, art)
		}
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Terminal) writeArticle(b *strings.Builder, n int, art domain.Article) {
	b.WriteString(t.fit(fmt.Sprintf("%2d. %s", n, art.Headline)))
	b.WriteString("\n")
	b.WriteString(t.fit("    " + art.SectionName + " | " + FormatPublished(art)))
	b.WriteString("\n")
	b.WriteString("    " + art.WebURL + "\n")
	if art.HasThumbnail() {
		b.WriteString("    " + art.ThumbnailURL + "\n")
	} else {
		b.WriteString("    " + noImage + "\n")
	}
}

func (t *Terminal) fit(s string) string {
	return runewidth.Truncate(s, t.width, "…")
}

// FormatPublished renders the publication date for display. Unparseable dates are shown raw.
func FormatPublished(art domain.Article) string {
	if ts, ok := art.PublishedAt(); ok {
		return "Published on " + ts.Format(displayDateLayout)
	}
	return "Published on " + art.PublicationDate
}
