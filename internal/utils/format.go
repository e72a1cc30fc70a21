package utils

import (
	"strconv"
	"strings"
)

const vectorSeparator = ","

// FormatFloat renders value with the shortest representation that parses back to the same float64.
func FormatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

// FormatVector joins the components of a vector with commas.
func FormatVector(x, y, z float64) string {
	return FormatFloat(x) + vectorSeparator + FormatFloat(y) + vectorSeparator + FormatFloat(z)
}

// FormatChannels renders every channel followed by a comma, so an op with no channels renders as "".
func FormatChannels(channels []float64) string {
	var builder strings.Builder
	for _, channel := range channels {
		builder.WriteString(FormatFloat(channel))
		builder.WriteString(vectorSeparator)
	}
	return builder.String()
}

// FormatIndices joins integer indices with commas.
func FormatIndices(indices []int32) string {
	parts := make([]string, len(indices))
	for index, value := range indices {
		parts[index] = strconv.FormatInt(int64(value), 10)
	}
	return strings.Join(parts, vectorSeparator)
}
