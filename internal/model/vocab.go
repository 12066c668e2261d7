package model

// Stage classifies a status label for the metrics engine. Labels
// themselves are configurable; stages are the fixed axis metrics reason
// about.
type Stage string

const (
	StagePending    Stage = "pending"
	StageInProgress Stage = "in_progress"
	StageRejected   Stage = "rejected"
	StageOffer      Stage = "offer"
	StageAccepted   Stage = "accepted"
)

// KnownStage reports whether s is one of the recognized stages.
func KnownStage(s Stage) bool {
	switch s {
	case StagePending, StageInProgress, StageRejected, StageOffer, StageAccepted:
		return true
	}
	return false
}

// StatusDef binds a display label to its stage.
type StatusDef struct {
	Label string
	Stage Stage
}

// Vocabulary is the ordered set of recognized statuses and tags.
type Vocabulary struct {
	Statuses []StatusDef
	Tags     []string
}

// StatusKnown reports whether label is part of the vocabulary.
func (v Vocabulary) StatusKnown(label string) bool {
	_, ok := v.stage(label)
	return ok
}

// StatusLabels returns the ordered status labels.
func (v Vocabulary) StatusLabels() []string {
	labels := make([]string, len(v.Statuses))
	for i, s := range v.Statuses {
		labels[i] = s.Label
	}
	return labels
}

// IsPending reports whether the entry is still awaiting any response.
func (v Vocabulary) IsPending(label string) bool {
	stage, ok := v.stage(label)
	return ok && stage == StagePending
}

// IsDecided reports whether the entry has reached a final outcome.
// Pending and in-progress entries are undecided; anything else,
// including labels outside the vocabulary, counts as decided.
func (v Vocabulary) IsDecided(label string) bool {
	stage, ok := v.stage(label)
	if !ok {
		return true
	}
	return stage != StagePending && stage != StageInProgress
}

// IsAccepted reports whether the entry ended in an accepted outcome
// (an offer extended or taken).
func (v Vocabulary) IsAccepted(label string) bool {
	stage, ok := v.stage(label)
	return ok && (stage == StageOffer || stage == StageAccepted)
}

func (v Vocabulary) stage(label string) (Stage, bool) {
	for _, s := range v.Statuses {
		if s.Label == label {
			return s.Stage, true
		}
	}
	return "", false
}
