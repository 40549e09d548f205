package domain

import "math/rand"

// SamplePool picks n distinct questions at random from pool and returns copies
// with freshly shuffled choice sets. The pool itself is never mutated, so a
// shared cached pool can serve many rooms.
func SamplePool(pool []Question, n int) ([]Question, error) {
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if len(pool) < n {
		return nil, ErrNotEnoughQuestions
	}
	batch := make([]Question, 0, n)
	for _, i := range rand.Perm(len(pool))[:n] {
		q := pool[i]
		batch = append(batch, Question{
			Prompt:        q.Prompt,
			CorrectChoice: q.CorrectChoice,
			Choices:       ShuffledChoices(q.Choices),
		})
	}
	return batch, nil
}

// ShuffledChoices returns a shuffled copy of choices.
func ShuffledChoices(choices []string) []string {
	out := make([]string, len(choices))
	copy(out, choices)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
