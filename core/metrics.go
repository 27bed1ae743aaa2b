package core

// NavigationMetrics receives navigator counters. Implementations must be
// safe for concurrent use: one Navigator serves many trajectories.
type NavigationMetrics interface {
	IncNavigatorCall(call string)
	IncKernelInitialization(kind string)
	IncKernelExhaustion(kind string)
	IncVolumeSwitch()
}

// PropagationMetrics receives per-track propagation outcomes.
type PropagationMetrics interface {
	ObserveSteps(steps int)
	IncTrack(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) IncNavigatorCall(string)        {}
func (noopMetrics) IncKernelInitialization(string) {}
func (noopMetrics) IncKernelExhaustion(string)     {}
func (noopMetrics) IncVolumeSwitch()               {}
func (noopMetrics) ObserveSteps(int)               {}
func (noopMetrics) IncTrack(string)                {}
