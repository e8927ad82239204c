package game

import (
	"strings"
	"testing"
)

func TestIntroLineCarriesFirstClue(t *testing.T) {
	line := IntroLine("it blushes at sunsets")
	if !strings.Contains(line, "it blushes at sunsets") {
		t.Errorf("intro narration missing the clue: %q", line)
	}
}

func TestTransitionLineCarriesClue(t *testing.T) {
	for _, doorID := range []int{1, 2, 5} {
		line := TransitionLine(doorID, "you could not lift it")
		if !strings.Contains(line, "you could not lift it") {
			t.Errorf("transition narration for door %d missing the clue: %q", doorID, line)
		}
	}
}

func TestStrictnessAlwaysResolvesAmbiguityToClosed(t *testing.T) {
	cases := []struct {
		name                 string
		doorIndex, doorCount int
	}{
		{"first door", 1, 3},
		{"middle door", 2, 3},
		{"final door", 3, 3},
		{"single door", 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clause := strictness(tc.doorIndex, tc.doorCount)
			if !strings.Contains(clause, "false") {
				t.Errorf("strictness(%d, %d) never tells the judge to close on doubt: %q",
					tc.doorIndex, tc.doorCount, clause)
			}
		})
	}
}

func TestHintLineClampsLevel(t *testing.T) {
	if got := HintLine("clue", 99); !strings.Contains(got, "clue") {
		t.Errorf("HintLine clamped level lost the clue: %q", got)
	}
	if got := HintLine("clue", -1); !strings.Contains(got, "clue") {
		t.Errorf("HintLine negative level lost the clue: %q", got)
	}
}
