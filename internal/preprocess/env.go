package preprocess

import "github.com/ct-build/ct-cppdeps/internal/macro"

// stateEnv adapts *macro.State to evalexpr.Env without evalexpr needing to
// import macro.
type stateEnv struct {
	state *macro.State
}

func (e stateEnv) IsDefined(name string) bool {
	return e.state.IsDefined(name)
}

func (e stateEnv) Body(name string) ([]byte, bool) {
	v := e.state.Lookup(name)
	if !v.IsDefined() {
		return nil, false
	}
	return v.Macro.Body, true
}
