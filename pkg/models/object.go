package models

import (
	"github.com/google/uuid"
)

// ObjectRecord is an Object as returned by the object/fact store.
// Objects are typed entities such as IP addresses or domain names.
type ObjectRecord struct {
	ID     uuid.UUID `json:"id"`
	TypeID uuid.UUID `json:"type_id"`
	Value  string    `json:"value"`
}

// ObjectTypeStruct maps an ObjectType id to its name.
type ObjectTypeStruct struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// FactTypeStruct maps a FactType id to its name.
type FactTypeStruct struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
