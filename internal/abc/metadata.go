package abc

import (
	"fmt"
	"sort"
	"strings"
)

const (
	metaDataPairSeparator   = ';'
	metaDataAssignSeparator = '='
	metaDataEscape          = '\\'

	// SchemaKey names the metadata entry holding the schema title of an object.
	SchemaKey = "schema"
	// GeometryScopeKey names the property metadata entry holding a geometry scope token.
	GeometryScopeKey = "geoScope"
)

// MetaData is a string map attached to archives, objects and properties.
type MetaData struct {
	entries map[string]string
}

// NewMetaData builds metadata from the provided pairs.
func NewMetaData(pairs map[string]string) MetaData {
	metaData := MetaData{}
	for key, value := range pairs {
		metaData.Set(key, value)
	}
	return metaData
}

// ParseMetaData decodes the output of Serialize.
func ParseMetaData(serialized string) (MetaData, error) {
	metaData := MetaData{}
	trimmed := strings.TrimSpace(serialized)
	var key, value strings.Builder
	inValue := false
	escaped := false

	flush := func() error {
		if !inValue {
			if key.Len() == 0 {
				return nil
			}
			return fmt.Errorf("malformed metadata pair %q", key.String())
		}
		if key.Len() == 0 {
			return fmt.Errorf("malformed metadata pair %q", string(metaDataAssignSeparator)+value.String())
		}
		metaData.Set(key.String(), value.String())
		key.Reset()
		value.Reset()
		inValue = false
		return nil
	}

	for _, character := range trimmed {
		current := &key
		if inValue {
			current = &value
		}
		switch {
		case escaped:
			current.WriteRune(character)
			escaped = false
		case character == metaDataEscape:
			escaped = true
		case character == metaDataPairSeparator:
			if err := flush(); err != nil {
				return MetaData{}, err
			}
		case character == metaDataAssignSeparator && !inValue:
			inValue = true
		default:
			current.WriteRune(character)
		}
	}
	if escaped {
		return MetaData{}, fmt.Errorf("malformed metadata %q: dangling escape", serialized)
	}
	if err := flush(); err != nil {
		return MetaData{}, err
	}
	return metaData, nil
}

// Get returns the value stored under key or an empty string.
func (metaData MetaData) Get(key string) string {
	return metaData.entries[key]
}

// Set stores value under key.
func (metaData *MetaData) Set(key, value string) {
	if metaData.entries == nil {
		metaData.entries = map[string]string{}
	}
	metaData.entries[key] = value
}

// Len returns the number of entries.
func (metaData MetaData) Len() int {
	return len(metaData.entries)
}

// Keys returns the entry keys in ascending order.
func (metaData MetaData) Keys() []string {
	keys := make([]string, 0, len(metaData.entries))
	for key := range metaData.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Serialize renders the entries as key=value pairs joined by ';' in key order. Backslash,
// ';' and '=' inside keys and values are escaped with a backslash.
func (metaData MetaData) Serialize() string {
	var builder strings.Builder
	for index, key := range metaData.Keys() {
		if index > 0 {
			builder.WriteRune(metaDataPairSeparator)
		}
		writeEscaped(&builder, key)
		builder.WriteRune(metaDataAssignSeparator)
		writeEscaped(&builder, metaData.entries[key])
	}
	return builder.String()
}

func writeEscaped(builder *strings.Builder, text string) {
	for _, character := range text {
		switch character {
		case metaDataEscape, metaDataPairSeparator, metaDataAssignSeparator:
			builder.WriteRune(metaDataEscape)
		}
		builder.WriteRune(character)
	}
}
