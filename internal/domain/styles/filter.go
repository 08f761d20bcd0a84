package styles

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SRTScriptHeight and SRTScriptWidth are the script resolution libass
	// assumes for SRT input; force_style values are in these units.
	SRTScriptHeight = 288
	SRTScriptWidth  = 384

	// ASSScriptHeight and ASSScriptWidth are used for generated ASS scripts.
	ASSScriptHeight = ReferenceHeight
	ASSScriptWidth  = 1920
)

type field struct {
	key, val string
}

// assFields lays out p as ASS style fields for a script of the given
// resolution. The box is an opaque border (BorderStyle=3) whose padding
// is the outline width.
func assFields(p Params, resX, resY int) []field {
	primary, secondary := p.TextColor.ASS(1), p.TextColor.ASS(1)
	if p.Progressive {
		primary = p.HighlightColor.ASS(1)
		secondary = p.DimColor.ASS(p.DimOpacity)
	}
	align := "2"
	if p.Anchor == AnchorTop {
		align = "8"
	}
	bold := "0"
	if p.Bold {
		bold = "-1"
	}
	side := int((1-p.MaxWidth)/2*float64(resX) + 0.5)
	return []field{
		{"Fontname", p.FontName},
		{"Fontsize", strconv.Itoa(scale(p.FontSize, resY))},
		{"PrimaryColour", primary},
		{"SecondaryColour", secondary},
		{"OutlineColour", p.BoxColor.ASS(p.BoxOpacity)},
		{"BackColour", p.ShadowColor.ASS(0.5)},
		{"Bold", bold},
		{"BorderStyle", "3"},
		{"Outline", strconv.Itoa(scale(p.BoxPadding, resY))},
		{"Shadow", strconv.Itoa(scale(p.Shadow, resY))},
		{"Alignment", align},
		{"MarginL", strconv.Itoa(side)},
		{"MarginR", strconv.Itoa(side)},
		// libass measures MarginV to the text; the box extends BoxPadding past
		// it and sits below the bar, if any.
		{"MarginV", strconv.Itoa(scale(p.MarginV+p.BorderWidth+p.BoxPadding, resY))},
	}
}

// barFields is the style of the bar event: the caption's own box, laid
// out with the same text and padding one bar width higher, in BorderColor
// with invisible glyphs. Clipped to BarClip it is a strip exactly as wide
// as the caption box.
func barFields(p Params, resX, resY int) []field {
	fs := assFields(p, resX, resY)
	for i, f := range fs {
		switch f.key {
		case "PrimaryColour", "SecondaryColour":
			fs[i].val = p.TextColor.ASS(0)
		case "OutlineColour":
			fs[i].val = p.BorderColor.ASS(1)
		case "BackColour":
			fs[i].val = p.ShadowColor.ASS(0)
		case "Shadow":
			fs[i].val = "0"
		case "MarginV":
			fs[i].val = strconv.Itoa(scale(p.MarginV+p.BoxPadding, resY))
		}
	}
	return fs
}

// BarClip returns the \clip override that keeps the bar event to the
// strip above the caption box, in ASS script units. Bars are drawn for
// top-anchored styles only and it reports false for any other.
func BarClip(p Params) (string, bool) {
	if p.BorderWidth <= 0 || p.Anchor != AnchorTop {
		return "", false
	}
	top := scale(p.MarginV, ASSScriptHeight)
	return fmt.Sprintf("{\\clip(0,%d,%d,%d)}", top, ASSScriptWidth, top+scale(p.BorderWidth, ASSScriptHeight)), true
}

// NeedsASS reports whether p can only be burned in from an ASS script:
// karaoke timing and the bar have no SRT form.
func (p Params) NeedsASS() bool {
	_, bar := BarClip(p)
	return p.Progressive || bar
}

// ForceStyle renders p as an ffmpeg subtitles force_style value for SRT
// input.
func ForceStyle(p Params) string {
	fs := assFields(p, SRTScriptWidth, SRTScriptHeight)
	parts := make([]string, 0, len(fs))
	for _, f := range fs {
		key := f.key
		if key == "Fontname" {
			key = "FontName"
		} else if key == "Fontsize" {
			key = "FontSize"
		}
		parts = append(parts, key+"="+f.val)
	}
	return strings.Join(parts, ",")
}

// StyleLine renders p as a [V4+ Styles] line named name.
func StyleLine(p Params, name string) string {
	return styleLine(assFields(p, ASSScriptWidth, ASSScriptHeight), name)
}

// BarStyleLine renders the style of the bar drawn above p's caption box.
func BarStyleLine(p Params, name string) string {
	return styleLine(barFields(p, ASSScriptWidth, ASSScriptHeight), name)
}

func styleLine(fs []field, name string) string {
	v := map[string]string{}
	for _, f := range fs {
		v[f.key] = f.val
	}
	return fmt.Sprintf("Style: %s,%s,%s,%s,%s,%s,%s,%s,0,0,0,100,100,0,0,%s,%s,%s,%s,%s,%s,%s,1",
		name, v["Fontname"], v["Fontsize"],
		v["PrimaryColour"], v["SecondaryColour"], v["OutlineColour"], v["BackColour"],
		v["Bold"],
		v["BorderStyle"], v["Outline"], v["Shadow"], v["Alignment"],
		v["MarginL"], v["MarginR"], v["MarginV"],
	)
}

// FilterGraph builds the -vf value that burns subsPath into the video.
// SRT input is styled via force_style; ASS input carries its own style.
func FilterGraph(p Params, subsPath string, assInput bool) string {
	var b strings.Builder
	b.WriteString("subtitles=filename=")
	b.WriteString(EscapeFilterPath(subsPath))
	if !assInput {
		b.WriteString(":force_style='")
		b.WriteString(ForceStyle(p))
		b.WriteString("'")
	}
	return b.String()
}

// EscapeFilterPath escapes a path for use as a filter option value.
func EscapeFilterPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	r := strings.NewReplacer(
		":", "\\:",
		"'", "\\'",
		",", "\\,",
		";", "\\;",
		"[", "\\[",
		"]", "\\]",
	)
	return r.Replace(p)
}
