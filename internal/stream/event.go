package stream

// Event kinds understood by subscribers.
const (
	KindLogs     = "logs"
	KindCost     = "cost"
	KindImages   = "images"
	KindTool     = "tool"
	KindProgress = "research_progress"
	KindError    = "error"
)

// Tool stages.
const (
	StageStart    = "start"
	StageComplete = "complete"
)

// Event is one structured progress message. Data carries the kind-specific
// payload and is marshaled inline next to the type tag.
type Event struct {
	Kind string
	Data map[string]any
}

// wire flattens the event into the single-object JSON shape subscribers
// receive: {"type": ..., <payload fields>}.
func (e Event) wire() map[string]any {
	out := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		out[k] = v
	}
	out["type"] = e.Kind
	return out
}

// essential kinds use blocking sends; the rest may be dropped under
// back-pressure.
func (e Event) essential() bool {
	return e.Kind == KindCost || e.Kind == KindError
}
