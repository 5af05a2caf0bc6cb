// Package classify derives a posting's level, specialty, discipline and
// general-application flag from its title.
//
// Classification is total and pure: every string, including the empty
// string, yields a valid result, and the result depends only on the
// normalized title.
package classify

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"jobwatch-engine/internal/domain"
)

// Classify normalizes title and classifies it.
func Classify(title string) domain.Attributes {
	return ClassifyNormalized(Normalize(title))
}

// ClassifyNormalized classifies a title that is already in Normalize form.
func ClassifyNormalized(norm string) domain.Attributes {
	return domain.Attributes{
		Level:                levelRules.Match(norm),
		Specialty:            specialtyRules.Match(norm),
		Discipline:           disciplineRules.Match(norm),
		IsGeneralApplication: generalApplicationRules.Match(norm),
	}
}

// Posting turns a raw posting into a job observed for the first time at
// raw.ObservedAt.
func Posting(raw domain.RawPosting) domain.Job {
	j := domain.Job{
		ID:        raw.ID,
		Source:    raw.Source,
		Company:   raw.Company,
		URL:       raw.URL,
		Title:     raw.Title,
		FirstSeen: raw.ObservedAt,
	}
	return j.WithAttributes(Classify(raw.Title))
}

// Postings classifies raws concurrently. The output order matches the input
// order. It only fails when ctx is done.
func Postings(ctx context.Context, raws []domain.RawPosting) ([]domain.Job, error) {
	out := make([]domain.Job, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range raws {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			out[i] = Posting(raws[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Reclassify recomputes attributes from each job's stored title. Lifecycle
// fields and urls are left as they are.
func Reclassify(s domain.Store) domain.Store {
	out := make(domain.Store, len(s))
	for id, j := range s {
		out[id] = j.WithAttributes(Classify(j.Title))
	}
	return out
}
