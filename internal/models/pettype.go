package models

// PetType is one of the adoptable species
type PetType string

// PetType constants
const (
	PetTypeDog    PetType = "dog"
	PetTypeCat    PetType = "cat"
	PetTypeDragon PetType = "dragon"
)

// PetTypeInfo describes an adoptable species for the shop view
type PetTypeInfo struct {
	ID          PetType `json:"id"`
	DisplayName string  `json:"display_name"`
	Image       string  `json:"image"`
}

// ValidPetTypes is a map of valid pet type IDs
var ValidPetTypes = map[PetType]bool{
	PetTypeDog:    true,
	PetTypeCat:    true,
	PetTypeDragon: true,
}

// IsValidPetType checks if a pet type is adoptable
func IsValidPetType(t PetType) bool {
	return ValidPetTypes[t]
}

// GetPetTypeDetails returns static details for a pet type, or nil if unknown
func GetPetTypeDetails(t PetType) *PetTypeInfo {
	types := map[PetType]*PetTypeInfo{
		PetTypeDog: {
			ID:          PetTypeDog,
			DisplayName: "Dog",
			Image:       "images/dog.png",
		},
		PetTypeCat: {
			ID:          PetTypeCat,
			DisplayName: "Cat",
			Image:       "images/cat.png",
		},
		PetTypeDragon: {
			ID:          PetTypeDragon,
			DisplayName: "Dragon",
			Image:       "images/dragon.png",
		},
	}

	return types[t]
}

// GetAllPetTypes returns every adoptable pet type in display order
func GetAllPetTypes() []*PetTypeInfo {
	return []*PetTypeInfo{
		GetPetTypeDetails(PetTypeDog),
		GetPetTypeDetails(PetTypeCat),
		GetPetTypeDetails(PetTypeDragon),
	}
}
