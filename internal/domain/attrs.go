package domain

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Level int

const (
	Intern Level = iota
	Entry
	Mid
	Senior
	Lead
)

var levelNames = []string{"Intern", "Entry", "Mid", "Senior", "Lead"}

func (l Level) String() string { return enumName(levelNames, int(l), "Level") }

func (l Level) MarshalText() ([]byte, error) { return marshalEnum(levelNames, int(l), "level") }

func (l *Level) UnmarshalText(b []byte) error {
	v, err := parseEnum(levelNames, string(b), "level")
	if err != nil {
		return err
	}
	*l = Level(v)
	return nil
}

// Levels lists every level in declaration order.
func Levels() []Level {
	out := make([]Level, len(levelNames))
	for i := range levelNames {
		out[i] = Level(i)
	}
	return out
}

type Specialty int

const (
	Gameplay Specialty = iota
	Graphics
	Engine
	Physics
	Animation
	Ai
	Audio
	Ui
	Network
	Automation
	Web
)

var specialtyNames = []string{
	"Gameplay", "Graphics", "Engine", "Physics", "Animation", "Ai",
	"Audio", "Ui", "Network", "Automation", "Web",
}

func (s Specialty) String() string { return enumName(specialtyNames, int(s), "Specialty") }

func (s Specialty) MarshalText() ([]byte, error) {
	return marshalEnum(specialtyNames, int(s), "specialty")
}

func (s *Specialty) UnmarshalText(b []byte) error {
	v, err := parseEnum(specialtyNames, string(b), "specialty")
	if err != nil {
		return err
	}
	*s = Specialty(v)
	return nil
}

// Specialties lists every specialty in declaration order.
func Specialties() []Specialty {
	out := make([]Specialty, len(specialtyNames))
	for i := range specialtyNames {
		out[i] = Specialty(i)
	}
	return out
}

type Discipline int

const (
	Programmer Discipline = iota
	Designer
	Artist
	Writer
	Composer
	Tester
	Manager
	Other
)

var disciplineNames = []string{
	"Programmer", "Designer", "Artist", "Writer", "Composer", "Tester", "Manager", "Other",
}

func (d Discipline) String() string { return enumName(disciplineNames, int(d), "Discipline") }

func (d Discipline) MarshalText() ([]byte, error) {
	return marshalEnum(disciplineNames, int(d), "discipline")
}

func (d *Discipline) UnmarshalText(b []byte) error {
	v, err := parseEnum(disciplineNames, string(b), "discipline")
	if err != nil {
		return err
	}
	*d = Discipline(v)
	return nil
}

// Disciplines lists every discipline in declaration order.
func Disciplines() []Discipline {
	out := make([]Discipline, len(disciplineNames))
	for i := range disciplineNames {
		out[i] = Discipline(i)
	}
	return out
}

// OptSpecialty is either no specialty (a general posting) or exactly one.
// The zero value is "none".
type OptSpecialty struct {
	s  Specialty
	ok bool
}

func SomeSpecialty(s Specialty) OptSpecialty { return OptSpecialty{s: s, ok: true} }

func NoSpecialty() OptSpecialty { return OptSpecialty{} }

func (o OptSpecialty) Get() (Specialty, bool) { return o.s, o.ok }

func (o OptSpecialty) IsZero() bool { return !o.ok }

func (o OptSpecialty) String() string {
	if !o.ok {
		return "-"
	}
	return o.s.String()
}

func (o OptSpecialty) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.s.String())
}

func (o *OptSpecialty) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = OptSpecialty{}
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("specialty: %w", err)
	}
	return o.parse(name)
}

func (o OptSpecialty) MarshalYAML() (any, error) {
	if !o.ok {
		return nil, nil
	}
	return o.s.String(), nil
}

func (o *OptSpecialty) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" {
		*o = OptSpecialty{}
		return nil
	}
	var name string
	if err := n.Decode(&name); err != nil {
		return fmt.Errorf("specialty: %w", err)
	}
	return o.parse(name)
}

// ParseOptSpecialty accepts a specialty name, or "" for none.
func ParseOptSpecialty(name string) (OptSpecialty, error) {
	var o OptSpecialty
	err := o.parse(name)
	return o, err
}

func (o *OptSpecialty) parse(name string) error {
	if name == "" {
		*o = OptSpecialty{}
		return nil
	}
	var s Specialty
	if err := s.UnmarshalText([]byte(name)); err != nil {
		return err
	}
	*o = SomeSpecialty(s)
	return nil
}

// Attributes is everything the classifier derives from a title.
type Attributes struct {
	Level                Level
	Specialty            OptSpecialty
	Discipline           Discipline
	IsGeneralApplication bool
}

func enumName(names []string, i int, kind string) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%s(%d)", kind, i)
	}
	return names[i]
}

func marshalEnum(names []string, i int, kind string) ([]byte, error) {
	if i < 0 || i >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", kind, i)
	}
	return []byte(names[i]), nil
}

func parseEnum(names []string, s, kind string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
