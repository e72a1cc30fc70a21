package utils

import (
	"strconv"
	"strings"
)

const byteSizeStep = 1024

var byteSizeUnits = [...]string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatByteSize renders an archive size with a lower-case binary unit: 512b, 1.5kb, 20mb.
// Values below ten keep one decimal.
func FormatByteSize(size int64) string {
	if size <= 0 {
		return "0" + byteSizeUnits[0]
	}
	value := float64(size)
	unit := 0
	for value >= byteSizeStep && unit < len(byteSizeUnits)-1 {
		value /= byteSizeStep
		unit++
	}
	if unit == 0 {
		return strconv.FormatInt(size, 10) + byteSizeUnits[0]
	}
	precision := 0
	if value < 10 {
		precision = 1
	}
	formatted := strings.TrimSuffix(strconv.FormatFloat(value, 'f', precision, 64), ".0")
	return formatted + byteSizeUnits[unit]
}
