package abc

import (
	"errors"
	"testing"
)

func TestXformOpChannelCounts(t *testing.T) {
	expected := map[XformOpType]int{
		XformOpScale:     3,
		XformOpTranslate: 3,
		XformOpRotate:    4,
		XformOpMatrix:    16,
		XformOpRotateX:   1,
		XformOpRotateY:   1,
		XformOpRotateZ:   1,
	}
	for opType, count := range expected {
		if opType.ChannelCount() != count {
			t.Fatalf("%s: expected %d channels, got %d", opType, count, opType.ChannelCount())
		}
		parsed, err := ParseXformOpType(opType.String())
		if err != nil {
			t.Fatalf("parse %s: %v", opType, err)
		}
		if parsed != opType {
			t.Fatalf("expected %s, got %s", opType, parsed)
		}
	}
}

func TestParseXformOpTypeRejectsUnknown(t *testing.T) {
	if _, err := ParseXformOpType("shear"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
	if parsed, err := ParseXformOpType("RotateY"); err != nil || parsed != XformOpRotateY {
		t.Fatalf("expected case-insensitive match, got %v %v", parsed, err)
	}
}

func TestNewXformOpValidatesChannels(t *testing.T) {
	if _, err := NewXformOp(XformOpTranslate, []float64{1, 2}); !errors.Is(err, ErrChannelCount) {
		t.Fatalf("expected ErrChannelCount, got %v", err)
	}
	if _, err := NewXformOp(XformOpType(42), nil); !errors.Is(err, ErrChannelCount) {
		t.Fatalf("expected ErrChannelCount for unknown type, got %v", err)
	}
	channels := []float64{0, 1, 0, 90}
	op, err := NewXformOp(XformOpRotate, channels)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	channels[3] = 0
	if op.NumChannels() != 4 || op.ChannelValue(3) != 90 {
		t.Fatalf("expected an independent copy of the channels, got %v", op.Channels)
	}
	sample := XformSample{Ops: []XformOp{op}, Inherits: true}
	if sample.NumOps() != 1 || sample.Op(0).Type != XformOpRotate {
		t.Fatalf("unexpected sample %+v", sample)
	}
}

func TestXformOpTypeStringUnknown(t *testing.T) {
	if name := XformOpType(-1).String(); name != "unknown(-1)" {
		t.Fatalf("unexpected name %q", name)
	}
}
