package rank

import "jobwatch-engine/internal/domain"

type Scorer interface {
	Score(job domain.Job) int
}

// WeightScorer scores a job by summing its weights and scaling the total.
type WeightScorer struct {
	W Weights
}

func NewScorer() WeightScorer { return WeightScorer{W: DefaultWeights()} }

func (s WeightScorer) Score(job domain.Job) int {
	score := 0
	if job.IsGeneralApplication {
		score += s.W.GeneralApplication
	}
	score += s.W.Level[job.Level]
	score += s.W.Discipline[job.Discipline]
	if sp, ok := job.Specialty.Get(); ok {
		score += s.W.Specialty[sp]
	}
	return s.W.Scale * score
}

var defaultScorer = NewScorer()

// Score uses the built-in weights.
func Score(job domain.Job) int { return defaultScorer.Score(job) }

// Desirable reports whether a score is worth a look.
func Desirable(score int) bool { return score > 0 }
