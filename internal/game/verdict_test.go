package game

import "testing"

func TestNormalizeValidVerdictPassesThrough(t *testing.T) {
	v := Verdict{
		ObjectName:    "ball",
		DisplayName:   "Red Ball",
		HexColor:      "#FF0000",
		Scale:         2.0,
		VFXType:       "sparks",
		Twist:         "bouncy",
		DoorOpen:      true,
		DropVoice:     "A ball. How original.",
		CongratsVoice: "Red enough, I suppose.",
	}
	Normalize(&v)

	if v.ObjectName != "ball" || v.HexColor != "#FF0000" || v.Scale != 2.0 {
		t.Fatalf("valid verdict mutated: %+v", v)
	}
	if !v.DoorOpen {
		t.Fatal("DoorOpen flipped")
	}
}

func TestNormalizeResolvesNearMissObject(t *testing.T) {
	v := Verdict{ObjectName: "pizzas", DoorOpen: true}
	Normalize(&v)
	if v.ObjectName != "pizza" {
		t.Fatalf("ObjectName = %q, want pizza", v.ObjectName)
	}
	if !v.DoorOpen {
		t.Fatal("near-miss resolution must not flip DoorOpen")
	}
	if v.DisplayName != "pizza" {
		t.Fatalf("DisplayName = %q, want pizza", v.DisplayName)
	}
}

func TestNormalizeUnknownObjectBecomesRefusal(t *testing.T) {
	v := Verdict{
		ObjectName: "spaceship",
		DoorOpen:   true,
		DropVoice:  "here you go",
	}
	Normalize(&v)

	if v.ObjectName != "box" {
		t.Fatalf("ObjectName = %q, want box", v.ObjectName)
	}
	if v.DoorOpen {
		t.Fatal("refusal must close the door")
	}
	if v.DropVoice == "here you go" {
		t.Fatal("refusal must replace the drop line")
	}
}

func TestNormalizeRepairsFields(t *testing.T) {
	v := Verdict{
		ObjectName: "duck",
		HexColor:   "yellowish",
		Scale:      40,
		VFXType:    "lasers",
		Twist:      "upside-down",
		DoorOpen:   false,
	}
	Normalize(&v)

	if v.HexColor != "#FFFFFF" {
		t.Errorf("HexColor = %q, want #FFFFFF", v.HexColor)
	}
	if v.Scale != ScaleMax {
		t.Errorf("Scale = %v, want %v", v.Scale, ScaleMax)
	}
	if v.VFXType != "none" || v.Twist != "none" {
		t.Errorf("vfx/twist = %q/%q, want none/none", v.VFXType, v.Twist)
	}
}

func TestNormalizeZeroScaleDefaultsToOne(t *testing.T) {
	v := Verdict{ObjectName: "cat"}
	Normalize(&v)
	if v.Scale != 1.0 {
		t.Fatalf("Scale = %v, want 1.0", v.Scale)
	}
}

func TestNormalizeClampsTinyScale(t *testing.T) {
	v := Verdict{ObjectName: "cat", Scale: 0.001}
	Normalize(&v)
	if v.Scale != ScaleMin {
		t.Fatalf("Scale = %v, want %v", v.Scale, ScaleMin)
	}
}
