package rank

import "jobwatch-engine/internal/domain"

// Preference table. These are tuning knobs, not logic; change them freely.
const (
	GeneralApplicationPenalty = -10
	ScoreScale                = 10

	InternWeight = -1000
	EntryWeight  = 10
	MidWeight    = 0
	SeniorWeight = -500
	LeadWeight   = -1000

	ProgrammerWeight = 100
	DesignerWeight   = -105
	ArtistWeight     = -105
	WriterWeight     = -110
	ComposerWeight   = -110
	TesterWeight     = -125
	ManagerWeight    = -150
	OtherWeight      = -110

	GameplayWeight   = 100
	GraphicsWeight   = 1
	EngineWeight     = 1
	PhysicsWeight    = -5
	AnimationWeight  = -100
	AiWeight         = -100
	AudioWeight      = -110
	UiWeight         = -120
	NetworkWeight    = -150
	AutomationWeight = -150
	WebWeight        = -150
)

// Weights is a full preference table.
type Weights struct {
	GeneralApplication int
	Scale              int
	Level              map[domain.Level]int
	Discipline         map[domain.Discipline]int
	Specialty          map[domain.Specialty]int
}

// DefaultWeights returns a fresh copy of the built-in table.
func DefaultWeights() Weights {
	return Weights{
		GeneralApplication: GeneralApplicationPenalty,
		Scale:              ScoreScale,
		Level: map[domain.Level]int{
			domain.Intern: InternWeight,
			domain.Entry:  EntryWeight,
			domain.Mid:    MidWeight,
			domain.Senior: SeniorWeight,
			domain.Lead:   LeadWeight,
		},
		Discipline: map[domain.Discipline]int{
			domain.Programmer: ProgrammerWeight,
			domain.Designer:   DesignerWeight,
			domain.Artist:     ArtistWeight,
			domain.Writer:     WriterWeight,
			domain.Composer:   ComposerWeight,
			domain.Tester:     TesterWeight,
			domain.Manager:    ManagerWeight,
			domain.Other:      OtherWeight,
		},
		Specialty: map[domain.Specialty]int{
			domain.Gameplay:   GameplayWeight,
			domain.Graphics:   GraphicsWeight,
			domain.Engine:     EngineWeight,
			domain.Physics:    PhysicsWeight,
			domain.Animation:  AnimationWeight,
			domain.Ai:         AiWeight,
			domain.Audio:      AudioWeight,
			domain.Ui:         UiWeight,
			domain.Network:    NetworkWeight,
			domain.Automation: AutomationWeight,
			domain.Web:        WebWeight,
		},
	}
}
