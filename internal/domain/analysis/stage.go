package analysis

// Stage identifies one step of the analysis pipeline.
type Stage string

const (
	StageStructure  Stage = "structure"
	StageExplain    Stage = "explain"
	StageTechReview Stage = "tech_review"
	StageProfReview Stage = "prof_review"
)

var stageOrder = []Stage{StageStructure, StageExplain, StageTechReview, StageProfReview}

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Index returns the 1-based position of the stage, or 0 if unknown.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool { return s.Index() > 0 }
