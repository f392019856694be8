package recipe

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// Difficulty is the tier a variant was generated for
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists the tiers in the order a variant set presents them
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// FlavorProfile is the dominant taste of a variant
type FlavorProfile string

const (
	FlavorSavory FlavorProfile = "Salgado"
	FlavorSweet  FlavorProfile = "Doce"
	FlavorBitter FlavorProfile = "Amargo"
	FlavorUmami  FlavorProfile = "Umami"
	FlavorSour   FlavorProfile = "Azedo"
)

// FlavorProfiles is the closed flavor vocabulary
var FlavorProfiles = []FlavorProfile{FlavorSavory, FlavorSweet, FlavorBitter, FlavorUmami, FlavorSour}

// Category is the menu slot a variant belongs to
type Category string

const (
	CategoryMain    Category = "Prato Principal"
	CategorySide    Category = "Acompanhamento"
	CategoryDessert Category = "Sobremesa"
	CategoryDrink   Category = "Bebida"
	CategorySnack   Category = "Lanche"
)

// Categories is the closed category vocabulary
var Categories = []Category{CategoryMain, CategorySide, CategoryDessert, CategoryDrink, CategorySnack}

// MainProtein classifies the protein a variant is built around
type MainProtein string

const (
	ProteinChicken    MainProtein = "Frango"
	ProteinBeef       MainProtein = "Bovina"
	ProteinPork       MainProtein = "Suína"
	ProteinSeafood    MainProtein = "Peixe/Frutos do Mar"
	ProteinPlantBased MainProtein = "Vegetariana/Vegana"
	ProteinNone       MainProtein = "Nenhuma"
)

// MainProteins is the closed protein vocabulary
var MainProteins = []MainProtein{ProteinChicken, ProteinBeef, ProteinPork, ProteinSeafood, ProteinPlantBased, ProteinNone}

// DietAttribute is a dietary tag; a variant carries a set of them
type DietAttribute string

const (
	DietGlutenFree  DietAttribute = "Sem Glúten"
	DietVegetarian  DietAttribute = "Vegetariano"
	DietVegan       DietAttribute = "Vegano"
	DietLowCarb     DietAttribute = "Low Carb"
	DietQuick       DietAttribute = "Rápido (<30min)"
	DietLactoseFree DietAttribute = "Sem Lactose"
)

// DietAttributes is the closed diet vocabulary
var DietAttributes = []DietAttribute{DietGlutenFree, DietVegetarian, DietVegan, DietLowCarb, DietQuick, DietLactoseFree}

// Minutes is the estimated preparation time as reported by the generator.
// It is kept as an opaque label; backends may emit either "25" or 25.
type Minutes string

// UnmarshalJSON accepts a JSON string or number
func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*m = Minutes(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = Minutes(n.String())
	return nil
}

// Value extracts the leading integer of the label, e.g. 40 from "40 min"
func (m Minutes) Value() (int, bool) {
	s := strings.TrimSpace(string(m))
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (m Minutes) String() string {
	return string(m)
}

// EnrichmentKind names a lazily attached field
type EnrichmentKind string

const (
	EnrichmentImage  EnrichmentKind = "image"
	EnrichmentSafety EnrichmentKind = "safety"
)
