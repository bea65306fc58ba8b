//go:build !windows && !linux

package cursor

type noSampler struct{}

func (noSampler) Sample() (Sample, bool) { return Sample{}, false }

func newPlatformSampler() Sampler {
	log.Debug("pointer sampling unsupported on this platform")
	return noSampler{}
}
