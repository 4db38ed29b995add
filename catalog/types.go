package catalog

import "strings"

// TypeFamily groups reflected column types by how literals bind to them.
type TypeFamily string

const (
	FamilyNumeric  TypeFamily = "numeric"
	FamilyText     TypeFamily = "text"
	FamilyBoolean  TypeFamily = "boolean"
	FamilyTemporal TypeFamily = "temporal"
	FamilyUUID     TypeFamily = "uuid"
	FamilyJSON     TypeFamily = "json"
	FamilyOther    TypeFamily = "other"
)

// FamilyOf classifies a reflected data type name.
func FamilyOf(dataType string) TypeFamily {
	t := strings.ToLower(strings.TrimSpace(dataType))
	switch {
	case t == "":
		return FamilyOther
	case t == "uuid":
		return FamilyUUID
	case strings.HasPrefix(t, "json"):
		return FamilyJSON
	case t == "boolean" || t == "bool":
		return FamilyBoolean
	case strings.Contains(t, "interval") || strings.Contains(t, "point"):
		return FamilyOther
	case strings.Contains(t, "timestamp") || strings.Contains(t, "date") || strings.HasPrefix(t, "time"):
		return FamilyTemporal
	case strings.Contains(t, "int") || strings.Contains(t, "numeric") || strings.Contains(t, "decimal") ||
		strings.Contains(t, "real") || strings.Contains(t, "double") || strings.Contains(t, "float") ||
		strings.Contains(t, "serial") || t == "money" || t == "number":
		return FamilyNumeric
	case strings.Contains(t, "char") || strings.Contains(t, "text") || strings.Contains(t, "clob") ||
		t == "string" || t == "name" || t == "citext":
		return FamilyText
	default:
		return FamilyOther
	}
}

// IsExactNumeric reports whether the type is a fixed-point decimal.
func IsExactNumeric(dataType string) bool {
	t := strings.ToLower(dataType)
	return strings.HasPrefix(t, "numeric") || strings.HasPrefix(t, "decimal")
}
