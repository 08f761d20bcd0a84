// Package styles resolves caption style identifiers to the single set of
// rendering parameters shared by the burn-in renderer and the live preview.
//
// Sizes and margins are expressed in pixels at ReferenceHeight. Each
// consumer scales them to its own surface: the ffmpeg filter to the
// subtitle script resolution, the preview to the player's height.
package styles

import (
	"fmt"
	"strings"
)

type ID string

const (
	BottomCentered ID = "bottom-centered"
	TopBar         ID = "top-bar"
	Karaoke        ID = "karaoke"
)

// Default is used for unknown or missing identifiers.
const Default = BottomCentered

// ReferenceHeight is the frame height Params sizes are expressed in.
const ReferenceHeight = 1080

// All lists every declared style in display order.
var All = []ID{BottomCentered, TopBar, Karaoke}

type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorBottom Anchor = "bottom"
)

type Color struct{ R, G, B uint8 }

// Hex formats the color as #RRGGBB.
func (c Color) Hex() string { return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B) }

// RGBA formats the color for CSS with the given opacity.
func (c Color) RGBA(opacity float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.R, c.G, c.B, clamp01(opacity))
}

// ASS formats the color as &HAABBGGRR; ASS alpha 00 is opaque.
func (c Color) ASS(opacity float64) string {
	return fmt.Sprintf("&H%02X%02X%02X%02X", assAlpha(opacity), c.B, c.G, c.R)
}

var (
	white = Color{255, 255, 255}
	black = Color{0, 0, 0}
	gold  = Color{255, 215, 0}
	green = Color{0, 255, 0}
)

// Params is the concrete appearance of a caption style.
type Params struct {
	Style ID

	FontName string
	FontSize int
	Bold     bool

	TextColor   Color
	ShadowColor Color
	Shadow      int

	BoxColor   Color
	BoxOpacity float64
	BoxPadding int
	// MaxWidth is the widest the caption box may grow, as a fraction of
	// the frame width.
	MaxWidth float64

	Anchor Anchor
	// MarginV is the distance from the anchored frame edge to the box edge.
	MarginV int

	// BorderWidth > 0 draws a bar of BorderColor along the box top edge,
	// as wide as the box. Only top-anchored styles carry one.
	BorderColor Color
	BorderWidth int

	// Progressive words switch from DimColor to HighlightColor as playback
	// advances through the caption.
	Progressive    bool
	HighlightColor Color
	DimColor       Color
	DimOpacity     float64
}

const fontName = "Noto Sans"

var table = map[ID]Params{
	BottomCentered: {
		Style:       BottomCentered,
		FontName:    fontName,
		FontSize:    48,
		Bold:        true,
		TextColor:   white,
		ShadowColor: black,
		Shadow:      2,
		BoxColor:    black,
		BoxOpacity:  0.6,
		BoxPadding:  20,
		MaxWidth:    0.8,
		Anchor:      AnchorBottom,
		MarginV:     80,
	},
	TopBar: {
		Style:       TopBar,
		FontName:    fontName,
		FontSize:    48,
		Bold:        true,
		TextColor:   white,
		ShadowColor: black,
		Shadow:      2,
		BoxColor:    black,
		BoxOpacity:  0.8,
		BoxPadding:  20,
		MaxWidth:    0.9,
		Anchor:      AnchorTop,
		MarginV:     40,
		BorderColor: green,
		BorderWidth: 4,
	},
	Karaoke: {
		Style:          Karaoke,
		FontName:       fontName,
		FontSize:       48,
		Bold:           true,
		TextColor:      white,
		ShadowColor:    black,
		Shadow:         2,
		BoxColor:       black,
		BoxOpacity:     0.6,
		BoxPadding:     20,
		MaxWidth:       0.8,
		Anchor:         AnchorBottom,
		MarginV:        80,
		Progressive:    true,
		HighlightColor: gold,
		DimColor:       white,
		DimOpacity:     0.5,
	},
}

// Parse reports whether id names a declared style.
func Parse(id string) (ID, bool) {
	s := ID(strings.ToLower(strings.TrimSpace(id)))
	_, ok := table[s]
	return s, ok
}

// Resolve returns the parameters for id, falling back to Default.
func Resolve(id string) Params {
	if s, ok := Parse(id); ok {
		return table[s]
	}
	return table[Default]
}

func assAlpha(opacity float64) int {
	return int((1-clamp01(opacity))*255 + 0.5)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func scale(v, target int) int {
	if v == 0 {
		return 0
	}
	s := (v*target + ReferenceHeight/2) / ReferenceHeight
	if s < 1 {
		return 1
	}
	return s
}
