package game

import (
	"fmt"
	"strings"

	"github.com/hypnagogia/dreamkeeper/internal/catalog"
)

// IntroLine is the Dreamkeeper's opening narration, played once per run.
// It carries the first door's most cryptic clue so the player has somewhere
// to start.
func IntroLine(firstClue string) string {
	return "Welcome, little dreamer. I am the Dreamkeeper, and these " +
		"are my doors. Speak your wishes and I shall grant them... in my own way. " +
		"Each door hungers for the right offering. The first already murmurs: " +
		firstClue
}

// CompletionLine is spoken when the last door opens.
const CompletionLine = "All my doors stand open. How terribly unusual. " +
	"Go on then, wake up. The dream will miss you more than I will."

// TransitionLine narrates arrival at a door, embedding that door's most
// cryptic clue.
func TransitionLine(doorID int, clue string) string {
	var flavour string
	switch doorID {
	case 1:
		flavour = "The first door. It asks for so little, and yet so many fail it."
	case 2:
		flavour = "The second door. Stricter than its sibling. It has standards."
	default:
		flavour = fmt.Sprintf("Door number %d. The deeper you go, the pickier they get.", doorID)
	}
	return flavour + " Listen closely: " + clue
}

// HintLine wraps a clue in the Dreamkeeper's voice for synthesis.
func HintLine(clue string, level int) string {
	prefixes := []string{
		"A whisper, since you asked nicely: ",
		"Very well, a little more: ",
		"Fine. I will spell it out: ",
	}
	if level >= len(prefixes) {
		level = len(prefixes) - 1
	}
	if level < 0 {
		level = 0
	}
	return prefixes[level] + clue
}

// strictness renders the door-position discipline clause. Early doors are
// judged leniently so first-time players get an object on the table; later
// doors are judged to the letter.
func strictness(doorIndex, doorCount int) string {
	if doorCount <= 1 || doorIndex <= 1 {
		return "Judge leniently. If the wished object plausibly satisfies the " +
			"door law, set door_open to true. Genuine ambiguity still means false."
	}
	if doorIndex >= doorCount {
		return "Judge with maximum strictness. door_open is true only when the " +
			"object satisfies the door law beyond any doubt. Any ambiguity " +
			"means false."
	}
	return "Judge strictly. door_open is true only when the object clearly " +
		"satisfies the door law. When in doubt, set it to false."
}

// JudgeSystemPrompt builds the system prompt for wish adjudication against a
// single door law. The available-asset list and the refusal rule are the
// prompt-level half of catalog enforcement; Normalize is the code-level half.
func JudgeSystemPrompt(law string, doorIndex, doorCount int) string {
	var b strings.Builder
	b.WriteString("You are the Dreamkeeper, a sardonic spirit who grants wishes ")
	b.WriteString("inside a dream made of locked doors. A player has spoken a wish ")
	b.WriteString("aloud; you receive the transcript. You must grant SOMETHING, but ")
	b.WriteString("you grant it your way, like a monkey's paw with a sense of humour.\n\n")

	b.WriteString("AVAILABLE ASSETS. You may only ever spawn one of these objects:\n")
	b.WriteString(promptAssets())
	b.WriteString("\n\n")

	b.WriteString("RULES:\n")
	b.WriteString("1. object_name MUST be exactly one identifier from the asset list. ")
	b.WriteString("If the wish names nothing on the list, pick the closest asset and ")
	b.WriteString("mock the substitution in drop_voice. Never invent new identifiers.\n")
	b.WriteString("2. Twist the wish when it amuses you: oversized, undersized, stuck ")
	b.WriteString("to the ceiling, bouncing, or spinning. Use twist values giant, tiny, ")
	b.WriteString("ceiling, bouncy, spinning, or none.\n")
	b.WriteString("3. vfx_type is fire, smoke, sparks, or none. hex_color is a #RRGGBB ")
	b.WriteString("value matching the wish, or a surprising one. scale is between 0.1 and 5.0.\n")
	b.WriteString("4. drop_voice is one or two short sarcastic sentences spoken as the ")
	b.WriteString("object materialises. congrats_voice reacts to the door test: ")
	b.WriteString("backhanded praise when it opens, a taunt explaining the mismatch when ")
	b.WriteString("it does not.\n")
	b.WriteString("5. Keep both voice lines under 25 words. No stage directions, no emoji.\n\n")

	fmt.Fprintf(&b, "THE CURRENT DOOR'S LAW: %s\n", law)
	b.WriteString(strictness(doorIndex, doorCount))
	b.WriteString("\n\nAnswer with a single JSON object only.")
	return b.String()
}

// RulesSystemPrompt builds the system prompt for authoring a fresh set of
// door laws with graduated clues.
func RulesSystemPrompt(doorCount int) string {
	var b strings.Builder
	b.WriteString("You are the Dreamkeeper designing the laws for the doors of your ")
	b.WriteString("dream. Players will wish for physical objects; each door opens only ")
	b.WriteString("for objects satisfying its law.\n\n")

	fmt.Fprintf(&b, "Produce exactly %d door laws. Requirements:\n", doorCount)
	b.WriteString("1. Each law is a short checkable property of a physical object, ")
	b.WriteString("such as its colour, size, material, edibility, or whether it floats, ")
	b.WriteString("burns, bounces, or makes noise.\n")
	b.WriteString("2. Several objects from the asset list must plausibly satisfy each ")
	b.WriteString("law. Never write a law only one object can pass.\n")
	b.WriteString("3. Laws get progressively harder. The first should be obvious, the ")
	b.WriteString("last should take thought.\n")
	b.WriteString("4. Each law carries exactly three clues ordered cryptic to blunt. ")
	b.WriteString("The last clue may nearly give the answer away.\n")
	b.WriteString("5. The laws must be satisfiable by assets on this list:\n")
	b.WriteString(promptAssets())
	b.WriteString("\n\nAnswer with a single JSON object only.")
	return b.String()
}

// promptAssets is split out so the judge and rule prompts stay in sync with
// the catalog package.
func promptAssets() string {
	return catalog.PromptList()
}
