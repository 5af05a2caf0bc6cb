package classify

import (
	"slices"
	"strings"

	"jobwatch-engine/internal/domain"
)

// Rule maps any of its terms to a category. A term is a word or a phrase of
// space-separated words in normalized form.
type Rule[T any] struct {
	Category T
	Terms    []string

	padded []string
}

// RuleSet is an ordered first-match-wins list of rules with a fallback.
type RuleSet[T any] struct {
	Name     string
	Rules    []Rule[T]
	Fallback T
}

func newRuleSet[T any](name string, fallback T, rules ...Rule[T]) RuleSet[T] {
	for i := range rules {
		rules[i].padded = make([]string, len(rules[i].Terms))
		for j, t := range rules[i].Terms {
			rules[i].padded[j] = " " + t + " "
		}
	}
	return RuleSet[T]{Name: name, Rules: rules, Fallback: fallback}
}

// Match returns the category of the first rule with a term that occurs as a
// whole word or phrase in norm, or the fallback.
func (rs RuleSet[T]) Match(norm string) T {
	c, _ := rs.MatchRule(norm)
	return c
}

// MatchRule is Match plus the index of the rule that fired (-1 for the
// fallback).
func (rs RuleSet[T]) MatchRule(norm string) (T, int) {
	padded := " " + norm + " "
	for i, r := range rs.Rules {
		for _, t := range r.padded {
			if strings.Contains(padded, t) {
				return r.Category, i
			}
		}
	}
	return rs.Fallback, -1
}

func (rs RuleSet[T]) clone() RuleSet[T] {
	rules := make([]Rule[T], len(rs.Rules))
	for i, r := range rs.Rules {
		r.Terms = slices.Clone(r.Terms)
		r.padded = slices.Clone(r.padded)
		rules[i] = r
	}
	rs.Rules = rules
	return rs
}

func rule[T any](c T, terms ...string) Rule[T] {
	return Rule[T]{Category: c, Terms: terms}
}

func specialty(s domain.Specialty, terms ...string) Rule[domain.OptSpecialty] {
	return rule(domain.SomeSpecialty(s), terms...)
}

// withSuffixes expands each stem into "stem suffix" for every suffix.
func withSuffixes(stems []string, suffixes ...string) []string {
	out := make([]string, 0, len(stems)*len(suffixes))
	for _, s := range stems {
		for _, suf := range suffixes {
			out = append(out, s+" "+suf)
		}
	}
	return out
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var levelRules = newRuleSet("level", domain.Mid,
	rule(domain.Intern, "intern", "internship", "co op", "coop",
		"grad", "graduate", "undergrad", "undergraduate", "thesis"),
	rule(domain.Entry, "entry", "associate", "junior", "jr"),
	rule(domain.Mid, "mid", "executive assistant"),
	rule(domain.Senior, "senior", "sr", "snr", "expert", "advance", "advanced", "principal", "staff"),
	rule(domain.Lead, "lead", "director", "president", "executive", "head", "architect"),
)

// The bare "ai" token runs after every other category so that titles like
// "AI/Gameplay Programmer" keep their more specific specialty.
var specialtyRules = newRuleSet("specialty", domain.NoSpecialty(),
	specialty(domain.Automation, concat(
		[]string{"automation", "build", "release", "security", "devop", "devops",
			"test", "testing", "sdet", "reliability", "sre"},
		withSuffixes([]string{"platform", "platforms", "data", "migration"}, "engineer", "engineering"),
	)...),
	specialty(domain.Web, "web", "front end", "frontend"),
	specialty(domain.Graphics, "graphics", "rendering", "art", "technical artist"),
	specialty(domain.Animation, "animation"),
	specialty(domain.Physics, "physics"),
	specialty(domain.Audio, "audio"),
	specialty(domain.Ai, "computer vision", "machine learning"),
	specialty(domain.Ui, "ui", "ux", "user interface", "user experience"),
	specialty(domain.Network, "network", "server", "service", "services", "backend"),
	specialty(domain.Engine, "engine programmer", "tools", "technology"),
	specialty(domain.Gameplay, "gameplay", "game", "unity", "unreal"),
	specialty(domain.Ai, "ai"),
)

// Management cues come first: a "Director of Engineering" is a manager.
var disciplineRules = newRuleSet("discipline", domain.Other,
	rule(domain.Manager, "manager", "director", "president", "coordinator", "producer"),
	rule(domain.Tester, "tester", "qa", "quality engineer", "quality engineering"),
	rule(domain.Other, concat(
		withSuffixes([]string{"bi", "support", "privacy", "facility", "mechatronics", "enterprise solution"},
			"engineer", "engineering"),
		[]string{"it", "information technology", "hr", "human resource", "human resources", "representative"},
	)...),
	rule(domain.Programmer, "programmer", "coder", "developer", "engineer", "engineering",
		"technical artist", "swe", "sre"),
	rule(domain.Other, "specialist", "researcher", "scientist", "analyst", "assistant",
		"responder", "publishing", "marketing", "support"),
	rule(domain.Artist, "artist", "animator", "modeler", "3d generalist"),
	rule(domain.Writer, "writer"),
	rule(domain.Composer, "composer"),
	rule(domain.Designer, "designer", "architect"),
	rule(domain.Manager, "lead", "head"),
	rule(domain.Programmer, "generalist"),
)

var generalApplicationRules = newRuleSet("general_application", false,
	rule(true, "general application", "drop box"),
)

// The accessors return copies; the package tables never change.

// LevelRules returns the seniority table, intern first.
func LevelRules() RuleSet[domain.Level] { return levelRules.clone() }

// SpecialtyRules returns the engineering specialty table.
func SpecialtyRules() RuleSet[domain.OptSpecialty] { return specialtyRules.clone() }

// DisciplineRules returns the discipline table; management terms come first.
func DisciplineRules() RuleSet[domain.Discipline] { return disciplineRules.clone() }

// GeneralApplicationRules returns the table that flags open applications.
func GeneralApplicationRules() RuleSet[bool] { return generalApplicationRules.clone() }
