package preview

// Effect is the container action chosen by Decide.
type Effect int

const (
	// EffectNone leaves everything as is.
	EffectNone Effect = iota
	// EffectHide hides the container; the host detaches the surface.
	EffectHide
	// EffectMountAndRender mounts the surface and renders.
	EffectMountAndRender
	// EffectRender re-renders into the mounted surface.
	EffectRender
	// EffectDefer waits for the container to become visible.
	EffectDefer
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectHide:
		return "hide"
	case EffectMountAndRender:
		return "mount+render"
	case EffectRender:
		return "render"
	case EffectDefer:
		return "defer"
	default:
		return "unknown"
	}
}

// Decide maps the observed state to a container action. Rules are checked
// in priority order: non-candidates hide a visible container, a visible
// container mounts the surface if needed, and a hidden one defers.
func Decide(isCandidate, panelVisible, attached bool) Effect {
	switch {
	case !isCandidate && panelVisible:
		return EffectHide
	case !isCandidate:
		return EffectNone
	case panelVisible && !attached:
		return EffectMountAndRender
	case panelVisible:
		return EffectRender
	default:
		return EffectDefer
	}
}
