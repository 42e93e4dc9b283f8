package voice

import (
	"reflect"
	"testing"
)

func TestParse_IsPureAndDeterministic(t *testing.T) {
	input := "Front brake pads look good, about 8mm."
	a := Parse(input)
	b := Parse(input)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical output for identical input, got %+v vs %+v", a, b)
	}
	if input != "Front brake pads look good, about 8mm." {
		t.Error("Parse must not mutate its input")
	}
}

func TestParse_ComponentRecognition_LongestMatchWins(t *testing.T) {
	f := Parse("the front brake pads are worn")
	if f.Component != "front brake pads" {
		t.Errorf("expected longest match 'front brake pads', got %q", f.Component)
	}
}

func TestParse_MeasurementExtraction_Millimeters(t *testing.T) {
	f := Parse("brake pads measure 5mm remaining")
	if f.Measurement == nil || f.Measurement.Unit != "length-mm" || f.Measurement.Value != 5 {
		t.Fatalf("expected 5mm measurement, got %+v", f.Measurement)
	}
}

func TestParse_MeasurementExtraction_BareFraction(t *testing.T) {
	f := Parse("tire tread at 3/32 remaining")
	if f.Measurement == nil || f.Measurement.Unit != "fraction-32" || f.Measurement.Value != 3 {
		t.Fatalf("expected 3/32 measurement, got %+v", f.Measurement)
	}
}

func TestParse_MeasurementExtraction_Inches_ConvertsToMM(t *testing.T) {
	f := Parse(`tire tread at 0.25" remaining`)
	if f.Measurement == nil || f.Measurement.Unit != "length-mm" {
		t.Fatalf("expected inches to normalize to length-mm, got %+v", f.Measurement)
	}
	want := 0.25 * 25.4
	if diff := f.Measurement.Value - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("expected %v mm, got %v", want, f.Measurement.Value)
	}
}

func TestParse_StatusKeyword_NeedsReplacement(t *testing.T) {
	f := Parse("the battery needs replacement")
	if f.Status != StatusCritical || f.Action != ActionReplace {
		t.Errorf("expected critical/replace, got %s/%s", f.Status, f.Action)
	}
}

func TestParse_StatusKeyword_LooksGood(t *testing.T) {
	f := Parse("oil level looks good")
	if f.Status != StatusGood || f.Action != ActionNone {
		t.Errorf("expected good/none, got %s/%s", f.Status, f.Action)
	}
}

func TestParse_MeasurementOverridesStatus_BrakePadCritical(t *testing.T) {
	// Even though the utterance says "looks good", a 2mm brake pad reading
	// is below the red threshold and must override to critical.
	f := Parse("front brake pads look good at 2mm")
	if f.Status != StatusCritical {
		t.Errorf("expected measurement to override status to critical, got %s", f.Status)
	}
}

func TestParse_MeasurementOverridesStatus_TireTreadFair(t *testing.T) {
	f := Parse("tire tread at 5/32")
	if f.Status != StatusFair {
		t.Errorf("expected 5/32 tire tread to be fair, got %s", f.Status)
	}
}

func TestParse_MeasurementOverridesStatus_BatteryGood(t *testing.T) {
	f := Parse("battery voltage reads 12.6V")
	if f.Status != StatusGood {
		t.Errorf("expected 12.6V battery to be good, got %s", f.Status)
	}
}

func TestParse_ConfidenceWithinBounds(t *testing.T) {
	cases := []string{
		"front brake pads look good at 8mm",
		"something unrecognizable entirely",
		"",
		"tire tread 3/32 needs replacement",
	}
	for _, c := range cases {
		f := Parse(c)
		if f.Confidence < 0 || f.Confidence > 1 {
			t.Errorf("Parse(%q).Confidence = %v, want within [0,1]", c, f.Confidence)
		}
	}
}

func TestParse_MeasurementOverridesStatus_FairGetsMonitorAction(t *testing.T) {
	f := Parse("front brakes at 5 millimeters")
	if f.Status != StatusFair {
		t.Errorf("expected 5mm brake reading to be fair, got %s", f.Status)
	}
	if f.Action != ActionMonitor {
		t.Errorf("expected fair status to carry a monitor action, got %s", f.Action)
	}
}

func TestParse_NoComponentMatch_EmptyComponent(t *testing.T) {
	f := Parse("xyzzy plugh")
	if f.Component != "" {
		t.Errorf("expected no component match, got %q", f.Component)
	}
}

func TestParse_CanonicalizationIgnoresCaseAndPunctuation(t *testing.T) {
	a := Parse("Front Brake Pads: Looks Good!")
	b := Parse("front brake pads looks good")
	if a.Component != b.Component || a.Status != b.Status {
		t.Errorf("expected punctuation/case-insensitive parsing to agree, got %+v vs %+v", a, b)
	}
}
