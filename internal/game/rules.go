package game

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/invopop/jsonschema"

	"github.com/hypnagogia/dreamkeeper/pkg/provider/judge"
)

// fallbackDoors is served when the judgment model is unreachable or returns
// an unusable rule set. A game night never stalls on a provider outage.
var fallbackDoors = []DoorLaw{
	{
		Law: "Must be something red",
		Clues: []string{
			"Think of the colour of embers and warnings.",
			"Tomatoes, stop signs, and dragons share it.",
			"Wish for anything and simply ask for it in red.",
		},
	},
	{
		Law: "Must be something you could eat",
		Clues: []string{
			"The door is hungry, not decorative.",
			"It would turn its nose up at furniture.",
			"Anything from a kitchen or a lunchbox will do.",
		},
	},
	{
		Law: "Must be something larger than a person",
		Clues: []string{
			"Small offerings slip through the keyhole unnoticed.",
			"Think of things you could stand in the shadow of.",
			"Wish big, or ask for a giant version of something small.",
		},
	},
}

// FallbackRules returns a copy of the built-in rule set, trimmed or repeated
// to the requested door count.
func FallbackRules(doorCount int) []DoorLaw {
	if doorCount <= 0 {
		doorCount = DefaultDoorCount
	}
	out := make([]DoorLaw, 0, doorCount)
	for i := 0; i < doorCount; i++ {
		out = append(out, fallbackDoors[i%len(fallbackDoors)])
	}
	return out
}

// RuleGenerator authors door laws via the judgment model, degrading to the
// built-in set when the model fails.
type RuleGenerator struct {
	judge  judge.Provider
	logger *slog.Logger
	schema *jsonschema.Schema
}

// NewRuleGenerator creates a generator backed by the given judge chain.
func NewRuleGenerator(j judge.Provider, logger *slog.Logger) *RuleGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	reflector := jsonschema.Reflector{DoNotReference: true}
	return &RuleGenerator{
		judge:  j,
		logger: logger,
		schema: reflector.Reflect(&RuleSet{}),
	}
}

// Generate returns doorCount fresh door laws. It never returns an error:
// model failures and malformed replies fall back to the built-in rule set so
// the run can always start.
func (g *RuleGenerator) Generate(ctx context.Context, doorCount int) []DoorLaw {
	if doorCount <= 0 {
		doorCount = DefaultDoorCount
	}
	if g.judge == nil {
		return FallbackRules(doorCount)
	}

	raw, err := g.judge.Complete(ctx, judge.Request{
		SystemPrompt: RulesSystemPrompt(doorCount),
		UserText:     "Design the door laws now.",
		SchemaName:   "door_rules",
		Schema:       g.schema,
		Temperature:  0.9,
	})
	if err != nil {
		g.logger.Warn("rule generation failed, using built-in rules", "error", err)
		return FallbackRules(doorCount)
	}

	var rs RuleSet
	if err := json.Unmarshal(raw, &rs); err != nil {
		g.logger.Warn("rule reply did not parse, using built-in rules", "error", err)
		return FallbackRules(doorCount)
	}
	if !usableRules(rs.Doors, doorCount) {
		g.logger.Warn("rule reply unusable, using built-in rules",
			"doors", len(rs.Doors))
		return FallbackRules(doorCount)
	}
	return rs.Doors[:doorCount]
}

// usableRules checks the model produced enough doors, each with a law and a
// full clue ladder.
func usableRules(doors []DoorLaw, want int) bool {
	if len(doors) < want {
		return false
	}
	for _, d := range doors[:want] {
		if d.Law == "" || len(d.Clues) < ClueCount {
			return false
		}
	}
	return true
}
