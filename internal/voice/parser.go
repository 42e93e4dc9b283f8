// Package voice implements the voice-to-structured-finding parser
// (C6): a pure, deterministic function from a short mechanic utterance
// to a structured finding. It performs no I/O and holds no mutable
// state, so Parse is safe to call from many goroutines at once.
package voice

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Status is the inferred condition bucket.
type Status string

const (
	StatusGood            Status = "good"
	StatusFair            Status = "fair"
	StatusNeedsAttention  Status = "needs_attention"
	StatusCritical        Status = "critical"
)

// Action is the inferred recommended next step.
type Action string

const (
	ActionNone    Action = "none"
	ActionMonitor Action = "monitor"
	ActionReplace Action = "replace"
	ActionCheck   Action = "check"
	ActionService Action = "service"
)

// Measurement is a normalized (value, unit) pair extracted from the
// utterance. Unit is one of the canonical families: "length-mm",
// "pressure-psi", "fraction-32", "percent", "voltage-v".
type Measurement struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Finding is the parser's output.
type Finding struct {
	Component   string       `json:"component"`
	Status      Status       `json:"status"`
	Measurement *Measurement `json:"measurement"`
	Action      Action       `json:"action"`
	Confidence  float64      `json:"confidence"`
}

// componentPhrase is one entry in the curated component list. Longer
// phrases are tried first so "front brake pads" beats "brake pads"
// beats "brakes".
type componentPhrase struct {
	phrase     string
	family     string // "" if the component has no measurement-driven threshold
	confidence float64
}

// componentPhrases is the curated, ordered component vocabulary. Order
// within a family doesn't matter; matching always sorts by phrase
// length (longest first) before scanning.
var componentPhrases = []componentPhrase{
	{"front brake pads", "brake_pad", 0.97},
	{"rear brake pads", "brake_pad", 0.97},
	{"front brake pad", "brake_pad", 0.96},
	{"rear brake pad", "brake_pad", 0.96},
	{"brake pads", "brake_pad", 0.95},
	{"brake pad", "brake_pad", 0.94},
	{"brake rotors", "", 0.93},
	{"brake fluid", "", 0.93},
	{"brakes", "brake_pad", 0.85},
	{"front tire tread", "tire_tread", 0.96},
	{"rear tire tread", "tire_tread", 0.96},
	{"tire tread depth", "tire_tread", 0.95},
	{"tire tread", "tire_tread", 0.94},
	{"tire pressure", "", 0.93},
	{"left front tire", "tire_tread", 0.9},
	{"right front tire", "tire_tread", 0.9},
	{"left rear tire", "tire_tread", 0.9},
	{"right rear tire", "tire_tread", 0.9},
	{"tires", "tire_tread", 0.8},
	{"battery voltage", "battery", 0.96},
	{"battery terminals", "", 0.93},
	{"battery", "battery", 0.9},
	{"oil level", "", 0.95},
	{"engine oil", "", 0.92},
	{"oil filter", "", 0.9},
	{"coolant level", "", 0.95},
	{"coolant", "", 0.88},
	{"transmission fluid", "", 0.93},
	{"power steering fluid", "", 0.93},
	{"windshield wipers", "", 0.92},
	{"wiper blades", "", 0.91},
	{"left headlight", "", 0.92},
	{"right headlight", "", 0.92},
	{"headlights", "", 0.88},
	{"tail lights", "", 0.88},
	{"turn signals", "", 0.88},
	{"air filter", "", 0.9},
	{"cabin air filter", "", 0.92},
	{"serpentine belt", "", 0.9},
	{"drive belt", "", 0.88},
	{"exhaust system", "", 0.88},
	{"suspension", "", 0.85},
	{"shocks", "", 0.85},
	{"struts", "", 0.85},
	{"alignment", "", 0.85},
	{"horn", "", 0.9},
}

func init() {
	sort.SliceStable(componentPhrases, func(i, j int) bool {
		return len(componentPhrases[i].phrase) > len(componentPhrases[j].phrase)
	})
}

var punctuationPattern = regexp.MustCompile(`[^\w\s./%"]+`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// canonicalize lowercases, strips punctuation other than the handful
// of characters measurement extraction depends on, and collapses
// whitespace.
func canonicalize(s string) string {
	s = strings.ToLower(s)
	s = punctuationPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// measurementPattern extracts "<number> <unit>" in its various forms,
// plus the bare fraction form (e.g. "3/32").
var measurementPattern = regexp.MustCompile(
	`(\d+(?:\.\d+)?)\s*(mm|millimeters?|inch(?:es)?|"|psi|%|percent|v|volts?|32nds|/32)`)
var bareFractionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*32`)

// extractMeasurement returns the first measurement found, normalized
// into a canonical unit family, or nil if none is present.
func extractMeasurement(s string) *Measurement {
	if m := bareFractionPattern.FindStringSubmatch(s); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &Measurement{Value: v, Unit: "fraction-32"}
	}
	m := measurementPattern.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	switch m[2] {
	case "mm", "millimeter", "millimeters":
		return &Measurement{Value: v, Unit: "length-mm"}
	case "inch", "inches", `"`:
		return &Measurement{Value: v * 25.4, Unit: "length-mm"}
	case "psi":
		return &Measurement{Value: v, Unit: "pressure-psi"}
	case "%", "percent":
		return &Measurement{Value: v, Unit: "percent"}
	case "v", "volt", "volts":
		return &Measurement{Value: v, Unit: "voltage-v"}
	case "32nds", "/32":
		return &Measurement{Value: v, Unit: "fraction-32"}
	default:
		return nil
	}
}

// statusKeyword maps a phrase to a (status, action, confidence) triple.
// Checked in descending phrase-length order, same as components.
type statusKeyword struct {
	phrase     string
	status     Status
	action     Action
	confidence float64
}

var statusKeywords = []statusKeyword{
	{"needs immediate replacement", StatusCritical, ActionReplace, 0.98},
	{"needs to be replaced", StatusCritical, ActionReplace, 0.95},
	{"needs replacement", StatusCritical, ActionReplace, 0.95},
	{"should be replaced", StatusCritical, ActionReplace, 0.93},
	{"looks good", StatusGood, ActionNone, 0.95},
	{"looks fine", StatusGood, ActionNone, 0.92},
	{"in good condition", StatusGood, ActionNone, 0.95},
	{"all good", StatusGood, ActionNone, 0.9},
	{"fine for now", StatusFair, ActionMonitor, 0.85},
	{"a bit worn", StatusNeedsAttention, ActionMonitor, 0.85},
	{"getting worn", StatusNeedsAttention, ActionMonitor, 0.85},
	{"worn down", StatusNeedsAttention, ActionMonitor, 0.88},
	{"worn", StatusNeedsAttention, ActionMonitor, 0.8},
	{"needs attention", StatusNeedsAttention, ActionCheck, 0.9},
	{"needs to be checked", StatusNeedsAttention, ActionCheck, 0.88},
	{"needs checking", StatusNeedsAttention, ActionCheck, 0.85},
	{"needs service", StatusNeedsAttention, ActionService, 0.9},
	{"needs servicing", StatusNeedsAttention, ActionService, 0.88},
	{"critical condition", StatusCritical, ActionReplace, 0.95},
	{"dangerously low", StatusCritical, ActionService, 0.93},
	{"leaking", StatusCritical, ActionService, 0.88},
	{"cracked", StatusNeedsAttention, ActionCheck, 0.85},
	{"low", StatusNeedsAttention, ActionCheck, 0.75},
	{"fair condition", StatusFair, ActionMonitor, 0.85},
	{"acceptable", StatusFair, ActionMonitor, 0.8},
	{"ok", StatusFair, ActionMonitor, 0.7},
	{"okay", StatusFair, ActionMonitor, 0.7},
}

func init() {
	sort.SliceStable(statusKeywords, func(i, j int) bool {
		return len(statusKeywords[i].phrase) > len(statusKeywords[j].phrase)
	})
}

// threshold describes the measurement-driven status override table
// from spec §4.6 for one component family and metric.
type threshold struct {
	unit      string
	greenMin  float64
	yellowMin float64
}

var thresholds = map[string]threshold{
	"brake_pad":  {unit: "length-mm", greenMin: 6, yellowMin: 3},
	"tire_tread": {unit: "fraction-32", greenMin: 6, yellowMin: 4},
	"battery":    {unit: "voltage-v", greenMin: 12.4, yellowMin: 12.0},
}

// statusFromMeasurement applies the family's threshold table, or
// returns ("", false) if the family has no table, there is no
// measurement, or the unit doesn't match its metric.
func statusFromMeasurement(family string, m *Measurement) (Status, bool) {
	t, ok := thresholds[family]
	if !ok || m == nil || m.Unit != t.unit {
		return "", false
	}
	switch {
	case m.Value >= t.greenMin:
		return StatusGood, true
	case m.Value >= t.yellowMin:
		return StatusFair, true
	default:
		return StatusCritical, true
	}
}

// Parse extracts a structured Finding from a free-text utterance. It
// does not mutate s and returns identical output for identical input.
func Parse(s string) Finding {
	canon := canonicalize(s)

	component := ""
	family := ""
	componentConfidence := 1.0
	for _, cp := range componentPhrases {
		if strings.Contains(canon, cp.phrase) {
			component = cp.phrase
			family = cp.family
			componentConfidence = cp.confidence
			break
		}
	}

	measurement := extractMeasurement(canon)
	measurementConfidence := 1.0 // nullable output: absence doesn't penalize confidence

	status := StatusFair
	action := ActionNone
	statusConfidence := 0.0
	for _, kw := range statusKeywords {
		if strings.Contains(canon, kw.phrase) {
			status = kw.status
			action = kw.action
			statusConfidence = kw.confidence
			break
		}
	}
	if statusConfidence == 0.0 {
		// No keyword matched: a finding with no status signal at all is
		// not a confident observation.
		statusConfidence = 0.3
	}

	if overridden, ok := statusFromMeasurement(family, measurement); ok {
		status = overridden
		if status == StatusCritical && action == ActionNone {
			action = ActionReplace
		}
		if (status == StatusFair || status == StatusNeedsAttention) && action == ActionNone {
			action = ActionMonitor
		}
	}

	confidence := componentConfidence * measurementConfidence * statusConfidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	confidence = math.Round(confidence*10000) / 10000

	return Finding{
		Component:   component,
		Status:      status,
		Measurement: measurement,
		Action:      action,
		Confidence:  confidence,
	}
}
