// Package game implements the wish-adjudication core: the door rule set, the
// single-session state store, and the pipeline that turns one recorded wish
// into a judged, narrated outcome.
package game

// ClueCount is the number of graduated clues per door (hard → medium → easy).
const ClueCount = 3

// DefaultDoorCount is the number of doors in a standard run.
const DefaultDoorCount = 3

// Scale bounds for granted objects; verdicts outside this range are clamped.
const (
	ScaleMin = 0.1
	ScaleMax = 5.0
)

// DoorLaw is one rule-set entry: a short physical requirement an object must
// satisfy, plus its clue ladder. Immutable once installed in a session.
type DoorLaw struct {
	// Law is the natural-language requirement (e.g. "Must be red").
	Law string `json:"law"`

	// Clues are exactly ClueCount hints ordered hard → easy.
	Clues []string `json:"clues"`
}

// Verdict is the structured result of judging one wish. The JSON field names
// are the wire contract with the game client and with the judgment model.
type Verdict struct {
	// ObjectName identifies the spawned prefab; always a catalog member
	// after normalisation.
	ObjectName string `json:"object_name" jsonschema:"required,description=The spawned object's code name. Must be one of the available assets."`

	// DisplayName is the label shown above the object. Defaults to
	// ObjectName when the model omits it.
	DisplayName string `json:"display_name,omitempty" jsonschema:"description=Short player-facing label for the object."`

	// HexColor tints the spawned object (e.g. "#FF0000").
	HexColor string `json:"hex_color,omitempty" jsonschema:"description=Hex color for the object like #FF0000."`

	// Scale is the size multiplier, clamped to [ScaleMin, ScaleMax].
	Scale float64 `json:"scale,omitempty" jsonschema:"description=Size multiplier between 0.1 and 5.0."`

	// VFXType is the particle effect attached to the object: fire, smoke,
	// sparks, or none.
	VFXType string `json:"vfx_type,omitempty" jsonschema:"description=Visual effect: fire smoke sparks or none."`

	// Twist is the monkey's-paw physical modifier: giant, tiny, ceiling,
	// bouncy, spinning, or none.
	Twist string `json:"twist,omitempty" jsonschema:"description=Physics twist: giant tiny ceiling bouncy spinning or none."`

	// DoorOpen reports whether the object unambiguously satisfies the
	// current door's law. Ambiguity resolves to false.
	DoorOpen bool `json:"door_open" jsonschema:"required,description=True only when the object clearly satisfies the door law."`

	// DropVoice is spoken as the object materialises.
	DropVoice string `json:"drop_voice" jsonschema:"required,description=Sarcastic line spoken while the object drops."`

	// CongratsVoice is spoken when the object is tested against the door
	// law: a backhanded acceptance, or a rejection explaining the mismatch.
	CongratsVoice string `json:"congrats_voice" jsonschema:"required,description=Line spoken at the door: backhanded praise if it opens otherwise an explanation of why not."`
}

// RuleSet is the judgment model's reply shape for rule authoring.
type RuleSet struct {
	Doors []DoorLaw `json:"doors" jsonschema:"required,description=Ordered door laws with three clues each from hard to easy."`
}
