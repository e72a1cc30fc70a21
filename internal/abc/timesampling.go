package abc

import "math"

// TimeSamplingKind classifies a time sampling.
type TimeSamplingKind string

const (
	TimeSamplingUniform TimeSamplingKind = "uniform"
	TimeSamplingCyclic  TimeSamplingKind = "cyclic"
	TimeSamplingAcyclic TimeSamplingKind = "acyclic"
	TimeSamplingUnknown TimeSamplingKind = "unknown"
)

const (
	// AcyclicSamplesPerCycle marks a time sampling without a cycle.
	AcyclicSamplesPerCycle = math.MaxUint32
	// AcyclicTimePerCycle is the cycle length stored for acyclic time samplings.
	AcyclicTimePerCycle = math.MaxFloat64 / 32.0
)

// TimeSamplingType holds the cycle parameters of a time sampling.
type TimeSamplingType struct {
	SamplesPerCycle uint32
	TimePerCycle    float64
}

// UniformTimeSampling returns one sample every timePerCycle.
func UniformTimeSampling(timePerCycle float64) TimeSamplingType {
	return TimeSamplingType{SamplesPerCycle: 1, TimePerCycle: timePerCycle}
}

// CyclicTimeSampling returns samplesPerCycle samples repeating every timePerCycle.
func CyclicTimeSampling(timePerCycle float64, samplesPerCycle uint32) TimeSamplingType {
	return TimeSamplingType{SamplesPerCycle: samplesPerCycle, TimePerCycle: timePerCycle}
}

// AcyclicTimeSampling returns the marker type for arbitrary stored times.
func AcyclicTimeSampling() TimeSamplingType {
	return TimeSamplingType{SamplesPerCycle: AcyclicSamplesPerCycle, TimePerCycle: AcyclicTimePerCycle}
}

// Kind classifies the sampling type.
func (samplingType TimeSamplingType) Kind() TimeSamplingKind {
	switch {
	case samplingType.SamplesPerCycle == AcyclicSamplesPerCycle && samplingType.TimePerCycle == AcyclicTimePerCycle:
		return TimeSamplingAcyclic
	case samplingType.TimePerCycle <= 0 || math.IsNaN(samplingType.TimePerCycle) || math.IsInf(samplingType.TimePerCycle, 0):
		return TimeSamplingUnknown
	case samplingType.SamplesPerCycle == 1:
		return TimeSamplingUniform
	case samplingType.SamplesPerCycle > 1 && samplingType.SamplesPerCycle < AcyclicSamplesPerCycle:
		return TimeSamplingCyclic
	default:
		return TimeSamplingUnknown
	}
}

// TimeSampling describes when the samples of a schema were recorded.
type TimeSampling struct {
	Type        TimeSamplingType
	StoredTimes []float64
}

// IdentityTimeSampling is the default sampling: uniform, one unit per sample, starting at zero.
func IdentityTimeSampling() TimeSampling {
	return TimeSampling{Type: UniformTimeSampling(1), StoredTimes: []float64{0}}
}

// Kind classifies the sampling.
func (sampling TimeSampling) Kind() TimeSamplingKind {
	return sampling.Type.Kind()
}

// SampleTime returns the time of the sample at index.
func (sampling TimeSampling) SampleTime(index int) float64 {
	if index < 0 || len(sampling.StoredTimes) == 0 {
		return 0
	}
	switch sampling.Kind() {
	case TimeSamplingUniform:
		return sampling.StoredTimes[0] + sampling.Type.TimePerCycle*float64(index)
	case TimeSamplingCyclic:
		samplesPerCycle := int(sampling.Type.SamplesPerCycle)
		if len(sampling.StoredTimes) < samplesPerCycle {
			return 0
		}
		cycle := index / samplesPerCycle
		remainder := index % samplesPerCycle
		return sampling.StoredTimes[remainder] + sampling.Type.TimePerCycle*float64(cycle)
	case TimeSamplingAcyclic:
		if index >= len(sampling.StoredTimes) {
			return sampling.StoredTimes[len(sampling.StoredTimes)-1]
		}
		return sampling.StoredTimes[index]
	default:
		return 0
	}
}

// Times returns the sample time of every index below numSamples.
func (sampling TimeSampling) Times(numSamples int) []float64 {
	if numSamples <= 0 {
		return nil
	}
	times := make([]float64, numSamples)
	for index := range times {
		times[index] = sampling.SampleTime(index)
	}
	return times
}

// Equal reports whether both samplings have the same type and stored times.
func (sampling TimeSampling) Equal(other TimeSampling) bool {
	if sampling.Type != other.Type || len(sampling.StoredTimes) != len(other.StoredTimes) {
		return false
	}
	for index, storedTime := range sampling.StoredTimes {
		if other.StoredTimes[index] != storedTime {
			return false
		}
	}
	return true
}
