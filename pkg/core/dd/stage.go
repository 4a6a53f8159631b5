package dd

// Stage is the step the engine is in.
type Stage int

const (
	StageUninitialized Stage = iota
	StageReady
	StageCheckWhole
	StageRemoveWhole
	StageRemoveHalf1
	StageRemoveHalf2
	StageRemoveComplement
	StageRemoveDelta
	StageAllResolved
	StageFinished
)

func (s Stage) String() string {
	switch s {
	case StageUninitialized:
		return "uninitialized"
	case StageReady:
		return "ready"
	case StageCheckWhole:
		return "check whole"
	case StageRemoveWhole:
		return "remove whole"
	case StageRemoveHalf1:
		return "remove first half"
	case StageRemoveHalf2:
		return "remove second half"
	case StageRemoveComplement:
		return "remove complement"
	case StageRemoveDelta:
		return "remove delta"
	case StageAllResolved:
		return "all resolved"
	case StageFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// partNames returns what is removed in this stage and what is kept.
func (s Stage) partNames() (removed, kept string) {
	switch s {
	case StageCheckWhole:
		return "nothing", "whole"
	case StageRemoveWhole:
		return "whole", "nothing"
	case StageRemoveHalf1, StageRemoveHalf2:
		return "half", "other half"
	case StageRemoveComplement:
		return "complement", "delta"
	default:
		return "delta", "complement"
	}
}
