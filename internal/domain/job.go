package domain

import (
	"sort"
	"time"
)

// RawPosting is what a source adapter hands to the engine for one scrape.
type RawPosting struct {
	ID         string
	Source     string
	Company    string
	URL        string
	Title      string
	ObservedAt time.Time
}

// Job is a classified posting plus its lifecycle fields.
type Job struct {
	ID                   string       `yaml:"id" json:"id"`
	Source               string       `yaml:"source" json:"source"`
	Company              string       `yaml:"company" json:"company"`
	URL                  string       `yaml:"url" json:"url"`
	Title                string       `yaml:"title" json:"title"`
	Level                Level        `yaml:"level" json:"level"`
	Specialty            OptSpecialty `yaml:"specialty,omitempty" json:"specialty"`
	Discipline           Discipline   `yaml:"discipline" json:"discipline"`
	IsGeneralApplication bool         `yaml:"is_general_application" json:"isGeneralApplication"`
	FirstSeen            time.Time    `yaml:"first_seen" json:"firstSeen"`
	MissingSince         *time.Time   `yaml:"missing_since,omitempty" json:"missingSince,omitempty"`
}

func (j Job) Attributes() Attributes {
	return Attributes{
		Level:                j.Level,
		Specialty:            j.Specialty,
		Discipline:           j.Discipline,
		IsGeneralApplication: j.IsGeneralApplication,
	}
}

// WithAttributes returns a copy of j carrying a.
func (j Job) WithAttributes(a Attributes) Job {
	j.Level = a.Level
	j.Specialty = a.Specialty
	j.Discipline = a.Discipline
	j.IsGeneralApplication = a.IsGeneralApplication
	return j
}

func (j Job) IsMissing() bool { return j.MissingSince != nil }

func (j Job) String() string { return j.Title }

// Store maps posting id to posting. It has no ordering.
type Store map[string]Job

// Clone returns a shallow copy. Jobs are values, so edits to the copy's
// entries never reach the original, except through MissingSince which is
// only ever replaced, not written through.
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for id, j := range s {
		out[id] = j
	}
	return out
}

// BySource returns the ids belonging to source, sorted.
func (s Store) BySource(source string) []string {
	var ids []string
	for id, j := range s {
		if j.Source == source {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
