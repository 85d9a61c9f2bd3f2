package metrics

const (
	LabelAction = "action"
	LabelResult = "result"
)
