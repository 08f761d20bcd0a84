package styles

import "fmt"

// Preview is Params scaled to a player surface, ready to map onto display
// properties.
type Preview struct {
	Style          ID      `json:"style"`
	FontFamily     string  `json:"fontFamily"`
	FontSizePx     int     `json:"fontSizePx"`
	FontWeight     int     `json:"fontWeight"`
	Color          string  `json:"color"`
	Background     string  `json:"background"`
	PaddingPx      int     `json:"paddingPx"`
	MaxWidthPct    int     `json:"maxWidthPct"`
	Anchor         Anchor  `json:"anchor"`
	OffsetPx       int     `json:"offsetPx"`
	TextShadow     string  `json:"textShadow"`
	BorderTop      string  `json:"borderTop,omitempty"`
	HighlightColor string  `json:"highlightColor,omitempty"`
	DimColor       string  `json:"dimColor,omitempty"`
	DimOpacity     float64 `json:"dimOpacity,omitempty"`
}

// PreviewFor scales p to a player of the given height in pixels.
func PreviewFor(p Params, height int) Preview {
	if height <= 0 {
		height = ReferenceHeight
	}
	weight := 400
	if p.Bold {
		weight = 700
	}
	pv := Preview{
		Style:       p.Style,
		FontFamily:  p.FontName,
		FontSizePx:  scale(p.FontSize, height),
		FontWeight:  weight,
		Color:       p.TextColor.Hex(),
		Background:  p.BoxColor.RGBA(p.BoxOpacity),
		PaddingPx:   scale(p.BoxPadding, height),
		MaxWidthPct: int(p.MaxWidth*100 + 0.5),
		Anchor:      p.Anchor,
		OffsetPx:    scale(p.MarginV, height),
		TextShadow:  fmt.Sprintf("%dpx %dpx 0 %s", scale(p.Shadow, height), scale(p.Shadow, height), p.ShadowColor.RGBA(0.5)),
	}
	if p.BorderWidth > 0 {
		pv.BorderTop = fmt.Sprintf("%dpx solid %s", scale(p.BorderWidth, height), p.BorderColor.Hex())
	}
	if p.Progressive {
		pv.HighlightColor = p.HighlightColor.Hex()
		pv.DimColor = p.DimColor.Hex()
		pv.DimOpacity = p.DimOpacity
	}
	return pv
}

// CSS returns the preview as CSS declarations for the caption box.
func (pv Preview) CSS() map[string]string {
	css := map[string]string{
		"position":         "absolute",
		"left":             "50%",
		"transform":        "translateX(-50%)",
		"font-family":      fmt.Sprintf("'%s', sans-serif", pv.FontFamily),
		"font-size":        fmt.Sprintf("%dpx", pv.FontSizePx),
		"font-weight":      fmt.Sprintf("%d", pv.FontWeight),
		"color":            pv.Color,
		"background-color": pv.Background,
		"padding":          fmt.Sprintf("%dpx", pv.PaddingPx),
		"max-width":        fmt.Sprintf("%d%%", pv.MaxWidthPct),
		"text-shadow":      pv.TextShadow,
		"text-align":       "center",
	}
	css[string(pv.Anchor)] = fmt.Sprintf("%dpx", pv.OffsetPx)
	if pv.BorderTop != "" {
		css["border-top"] = pv.BorderTop
	}
	return css
}
