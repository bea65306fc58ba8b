package host

import "github.com/breeze-rmm/monitorcapture/internal/capture"

// Observers fans capture events out to several observers in order.
type Observers []capture.Observer

var _ capture.Observer = Observers(nil)

func (o Observers) AcquireAttempt(monitor int, err error) {
	for _, obs := range o {
		obs.AcquireAttempt(monitor, err)
	}
}

func (o Observers) FrameStale(monitor int, err error) {
	for _, obs := range o {
		obs.FrameStale(monitor, err)
	}
}

func (o Observers) TargetChanged(r capture.Region) {
	for _, obs := range o {
		obs.TargetChanged(r)
	}
}

func (o Observers) StateChanged(s capture.LifecycleState) {
	for _, obs := range o {
		obs.StateChanged(s)
	}
}
