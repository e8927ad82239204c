package game

import (
	"regexp"
	"strings"

	"github.com/hypnagogia/dreamkeeper/internal/catalog"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// RefusalVerdict is what the player sees when a wish cannot be granted: the
// judgment model named something outside the asset catalog, or refused the
// wish outright. The box drops closed and the door stays shut.
func RefusalVerdict(wished string) Verdict {
	line := "The dream realm holds no such thing. Have a box instead."
	if wished != "" {
		line = "A " + wished + "? The dream realm holds no such thing. Have a box instead."
	}
	return Verdict{
		ObjectName:    "box",
		DisplayName:   "Mystery Box",
		HexColor:      "#888888",
		Scale:         1.0,
		VFXType:       "smoke",
		Twist:         "none",
		DoorOpen:      false,
		DropVoice:     line,
		CongratsVoice: "The door does not even twitch. Boxes rarely impress it.",
	}
}

// Normalize repairs a model-produced verdict in place so every field the game
// client consumes is well formed:
//
//   - ObjectName is resolved against the catalog; an unresolvable name turns
//     the whole verdict into a refusal (closed door, mystery box).
//   - Scale is clamped to [ScaleMin, ScaleMax]; the zero value means 1.0.
//   - HexColor must match #RRGGBB or it falls back to white.
//   - VFXType and Twist fall back to "none" when unrecognised.
//   - DisplayName defaults to the object name.
func Normalize(v *Verdict) {
	wished := strings.TrimSpace(v.ObjectName)
	resolved, ok := catalog.Resolve(wished)
	if !ok {
		*v = RefusalVerdict(wished)
		return
	}
	v.ObjectName = resolved

	if v.DisplayName == "" {
		v.DisplayName = resolved
	}

	switch {
	case v.Scale == 0:
		v.Scale = 1.0
	case v.Scale < ScaleMin:
		v.Scale = ScaleMin
	case v.Scale > ScaleMax:
		v.Scale = ScaleMax
	}

	if !hexColorRe.MatchString(v.HexColor) {
		v.HexColor = "#FFFFFF"
	}
	if !catalog.ValidVFX(v.VFXType) {
		v.VFXType = "none"
	} else {
		v.VFXType = strings.ToLower(strings.TrimSpace(v.VFXType))
	}
	if !catalog.ValidTwist(v.Twist) {
		v.Twist = "none"
	} else {
		v.Twist = strings.ToLower(strings.TrimSpace(v.Twist))
	}
}
