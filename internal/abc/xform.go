package abc

import (
	"fmt"
	"strings"
)

// XformOpType is the kind of a transform operation.
type XformOpType int

const (
	XformOpScale XformOpType = iota
	XformOpTranslate
	XformOpRotate
	XformOpMatrix
	XformOpRotateX
	XformOpRotateY
	XformOpRotateZ
)

var xformOpNames = [...]string{
	XformOpScale:     "scale",
	XformOpTranslate: "translate",
	XformOpRotate:    "rotate",
	XformOpMatrix:    "matrix",
	XformOpRotateX:   "rotateX",
	XformOpRotateY:   "rotateY",
	XformOpRotateZ:   "rotateZ",
}

var xformOpChannelCounts = [...]int{
	XformOpScale:     3,
	XformOpTranslate: 3,
	XformOpRotate:    4,
	XformOpMatrix:    16,
	XformOpRotateX:   1,
	XformOpRotateY:   1,
	XformOpRotateZ:   1,
}

// Valid reports whether the operation type is known.
func (opType XformOpType) Valid() bool {
	return opType >= XformOpScale && opType <= XformOpRotateZ
}

// String returns the operation name.
func (opType XformOpType) String() string {
	if !opType.Valid() {
		return fmt.Sprintf("unknown(%d)", int(opType))
	}
	return xformOpNames[opType]
}

// ChannelCount returns the number of channels the operation carries.
func (opType XformOpType) ChannelCount() int {
	if !opType.Valid() {
		return 0
	}
	return xformOpChannelCounts[opType]
}

// ParseXformOpType resolves an operation name, case-insensitively.
func ParseXformOpType(name string) (XformOpType, error) {
	for index, candidate := range xformOpNames {
		if strings.EqualFold(candidate, strings.TrimSpace(name)) {
			return XformOpType(index), nil
		}
	}
	return 0, fmt.Errorf("unknown transform operation %q", name)
}

// XformOp is one operation of a transform sample.
type XformOp struct {
	Type     XformOpType
	Channels []float64
}

// NewXformOp validates the channel count for opType.
func NewXformOp(opType XformOpType, channels []float64) (XformOp, error) {
	if !opType.Valid() {
		return XformOp{}, fmt.Errorf("transform operation %d: %w", int(opType), ErrChannelCount)
	}
	if len(channels) != opType.ChannelCount() {
		return XformOp{}, fmt.Errorf("%s expects %d channels, got %d: %w", opType, opType.ChannelCount(), len(channels), ErrChannelCount)
	}
	return XformOp{Type: opType, Channels: append([]float64(nil), channels...)}, nil
}

// NumChannels returns the number of channels.
func (op XformOp) NumChannels() int {
	return len(op.Channels)
}

// ChannelValue returns the channel at index.
func (op XformOp) ChannelValue(index int) float64 {
	return op.Channels[index]
}

// XformSample is the transform stack at one sample.
type XformSample struct {
	Ops      []XformOp
	Inherits bool
}

// NumOps returns the number of operations.
func (sample XformSample) NumOps() int {
	return len(sample.Ops)
}

// Op returns the operation at index.
func (sample XformSample) Op(index int) XformOp {
	return sample.Ops[index]
}
