package canvas

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"
)

// MaxSide bounds each side of a drawing surface, so an RGBA surface stays
// within 64 MiB.
const MaxSide = 4096

// SurfaceOptions sizes the drawing surface in screen pixels.
type SurfaceOptions struct {
	Width      int
	Height     int
	Background string
}

func (o SurfaceOptions) withDefaults() SurfaceOptions {
	if o.Width <= 0 {
		o.Width = 1280
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	o.Width = min(o.Width, MaxSide)
	o.Height = min(o.Height, MaxSide)
	if o.Background == "" {
		o.Background = "#ffffff"
	}
	return o
}

// WriteSVG draws the scene as a standalone SVG document. Edges and cards
// sit in one group carrying the scene transform, so they move together.
func WriteSVG(w io.Writer, s Scene, opts SurfaceOptions) error {
	opts = opts.withDefaults()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n",
		opts.Width, opts.Height, opts.Width, opts.Height)
	fmt.Fprintf(bw, `<defs><marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse"><path d="M 0 0 L 10 5 L 0 10 z" fill="#7f8c8d"/></marker></defs>`+"\n")
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", attr(opts.Background))

	t := s.Transform
	fmt.Fprintf(bw, `<g transform="translate(%s %s) scale(%s)">`+"\n", num(t.TranslateX), num(t.TranslateY), num(t.Scale))

	bw.WriteString(`<g class="edges">` + "\n")
	for _, e := range s.Edges {
		fmt.Fprintf(bw, `<line data-from="%s" data-to="%s" x1="%s" y1="%s" x2="%s" y2="%s" stroke="#7f8c8d" stroke-width="2" marker-end="url(#arrow)"/>`+"\n",
			attr(e.From), attr(e.To), num(e.X1), num(e.Y1), num(e.X2), num(e.Y2))
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g class="cards">` + "\n")
	for _, c := range s.Cards {
		writeCardSVG(bw, c)
	}
	bw.WriteString("</g>\n</g>\n</svg>\n")

	return bw.Flush()
}

func writeCardSVG(w *bufio.Writer, c Card) {
	fmt.Fprintf(w, `<g data-id="%s" data-importance="%s"`, attr(c.Node.ID), attr(string(c.Node.Importance)))
	if c.Selected {
		w.WriteString(` data-selected="true"`)
	}
	w.WriteString(">\n")
	fmt.Fprintf(w, `<rect x="%s" y="%s" width="%s" height="%s" rx="10" fill="%s" stroke="%s" stroke-width="%s"/>`+"\n",
		num(c.X), num(c.Y), num(c.Width), num(c.Height), attr(c.Style.Fill), attr(c.Style.BorderColor), num(c.Style.BorderWidth))

	y := c.Y + 24
	fmt.Fprintf(w, `<text x="%s" y="%s" font-family="sans-serif" font-size="%s" font-weight="%d">%s</text>`+"\n",
		num(c.X+12), num(y), num(c.Style.FontSize), c.Style.FontWeight, html.EscapeString(truncate(c.Node.Title, 28)))
	for _, line := range wrap(c.Node.Summary, 34, 3) {
		y += 18
		fmt.Fprintf(w, `<text x="%s" y="%s" font-family="sans-serif" font-size="12" fill="#555555">%s</text>`+"\n",
			num(c.X+12), num(y), html.EscapeString(line))
	}
	if c.Node.Page > 0 {
		fmt.Fprintf(w, `<text x="%s" y="%s" font-family="sans-serif" font-size="11" fill="#999999" text-anchor="end">p. %d</text>`+"\n",
			num(c.X+c.Width-10), num(c.Y+c.Height-10), c.Node.Page)
	}
	w.WriteString("</g>\n")
}

func num(f float64) string {
	r := math.Round(f*100) / 100
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func attr(s string) string { return html.EscapeString(s) }

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// wrap splits text into at most maxLines lines of about width runes. Text
// that does not fit ends with an ellipsis.
func wrap(s string, width, maxLines int) []string {
	var lines []string
	cur := ""
	for _, word := range strings.Fields(s) {
		if cur != "" && len([]rune(cur))+1+len([]rune(word)) > width {
			lines = append(lines, truncate(cur, width))
			cur = ""
			if len(lines) == maxLines {
				lines[maxLines-1] = truncate(lines[maxLines-1]+" …", width)
				return lines
			}
		}
		if cur == "" {
			cur = word
		} else {
			cur += " " + word
		}
	}
	if cur != "" {
		lines = append(lines, truncate(cur, width))
	}
	return lines
}
