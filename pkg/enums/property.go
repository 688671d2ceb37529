package enums

import "fmt"

// PropertyType classifies how the owner uses the property.
type PropertyType string

const (
	PropertyTypePrimary PropertyType = "primary"
	PropertyTypeRental  PropertyType = "rental"
	PropertyTypeFamily  PropertyType = "family"
)

var validPropertyTypes = []PropertyType{
	PropertyTypePrimary,
	PropertyTypeRental,
	PropertyTypeFamily,
}

// String implements fmt.Stringer.
func (p PropertyType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PropertyType.
func (p PropertyType) IsValid() bool {
	for _, candidate := range validPropertyTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePropertyType converts raw input into a PropertyType.
func ParsePropertyType(value string) (PropertyType, error) {
	for _, candidate := range validPropertyTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid property type %q", value)
}

// PropertyStatus captures the property lifecycle.
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusSold     PropertyStatus = "sold"
	PropertyStatusArchived PropertyStatus = "archived"
)

var validPropertyStatuses = []PropertyStatus{
	PropertyStatusActive,
	PropertyStatusSold,
	PropertyStatusArchived,
}

// String implements fmt.Stringer.
func (p PropertyStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PropertyStatus.
func (p PropertyStatus) IsValid() bool {
	for _, candidate := range validPropertyStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePropertyStatus converts raw input into a PropertyStatus.
func ParsePropertyStatus(value string) (PropertyStatus, error) {
	for _, candidate := range validPropertyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid property status %q", value)
}
