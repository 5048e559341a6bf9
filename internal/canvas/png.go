package canvas

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// WritePNG rasterizes the scene. Coordinates are transformed up front so
// line widths and font sizes follow the zoom level.
func WritePNG(w io.Writer, s Scene, opts SurfaceOptions) error {
	opts = opts.withDefaults()

	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fmt.Errorf("canvas: parse font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fmt.Errorf("canvas: parse font: %w", err)
	}

	t := s.Transform
	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetHexColor(opts.Background)
	dc.Clear()

	// Edges first so cards cover their ends.
	dc.SetHexColor("#7f8c8d")
	dc.SetLineWidth(2 * t.Scale)
	for _, e := range s.Edges {
		a := t.Apply(Position{X: e.X1, Y: e.Y1})
		b := t.Apply(Position{X: e.X2, Y: e.Y2})
		dc.DrawLine(a.X, a.Y, b.X, b.Y)
		dc.Stroke()
	}

	for _, c := range s.Cards {
		p := t.Apply(Position{X: c.X, Y: c.Y})
		cw, ch := c.Width*t.Scale, c.Height*t.Scale

		dc.DrawRoundedRectangle(p.X, p.Y, cw, ch, 10*t.Scale)
		dc.SetHexColor(c.Style.Fill)
		dc.FillPreserve()
		dc.SetHexColor(c.Style.BorderColor)
		dc.SetLineWidth(c.Style.BorderWidth * t.Scale)
		dc.Stroke()

		f := regular
		if c.Style.FontWeight >= 600 {
			f = bold
		}
		dc.SetFontFace(face(f, c.Style.FontSize*t.Scale))
		dc.SetHexColor("#222222")
		dc.DrawString(truncate(c.Node.Title, 28), p.X+12*t.Scale, p.Y+24*t.Scale)

		if c.Node.Summary != "" {
			dc.SetFontFace(face(regular, 12*t.Scale))
			dc.SetHexColor("#555555")
			y := p.Y + 24*t.Scale
			for _, line := range wrap(c.Node.Summary, 34, 3) {
				y += 18 * t.Scale
				dc.DrawString(line, p.X+12*t.Scale, y)
			}
		}
	}

	return dc.EncodePNG(w)
}

func face(f *truetype.Font, size float64) font.Face {
	if size < 1 {
		size = 1
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}
