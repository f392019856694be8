// Package generation holds the parameters and request descriptors exchanged
// with a generative backend.
package generation

import (
	"errors"
	"strings"
)

// Language is a supported output language code
type Language string

const (
	LanguagePortuguese Language = "pt"
	LanguageEnglish    Language = "en"
	LanguageSpanish    Language = "es"
	LanguageFrench     Language = "fr"
	LanguageItalian    Language = "it"
	LanguageGerman     Language = "de"
	LanguageJapanese   Language = "ja"
	LanguageKorean     Language = "ko"
)

// DefaultLanguage is used when no language has been chosen
const DefaultLanguage = LanguagePortuguese

var languageNames = map[Language]string{
	LanguagePortuguese: "Português do Brasil",
	LanguageEnglish:    "English",
	LanguageSpanish:    "Español",
	LanguageFrench:     "Français",
	LanguageItalian:    "Italiano",
	LanguageGerman:     "Deutsch",
	LanguageJapanese:   "Japanese",
	LanguageKorean:     "Korean",
}

// Languages lists the supported codes in display order
var Languages = []Language{
	LanguagePortuguese, LanguageEnglish, LanguageSpanish, LanguageFrench,
	LanguageItalian, LanguageGerman, LanguageJapanese, LanguageKorean,
}

// Valid reports whether the code is supported
func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// DisplayName is the name used inside prompts, e.g. "English"
func (l Language) DisplayName() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

// CookingMethod is the heat source the variants must be adapted to
type CookingMethod string

const (
	MethodStove          CookingMethod = "Stove"
	MethodOven           CookingMethod = "Oven"
	MethodAirFryer       CookingMethod = "AirFryer"
	MethodMicrowave      CookingMethod = "Microwave"
	MethodGrill          CookingMethod = "Grill"
	MethodPressureCooker CookingMethod = "PressureCooker"
)

// CookingMethods is the closed method vocabulary
var CookingMethods = []CookingMethod{MethodStove, MethodOven, MethodAirFryer, MethodMicrowave, MethodGrill, MethodPressureCooker}

// Valid reports whether the method is known
func (m CookingMethod) Valid() bool {
	for _, known := range CookingMethods {
		if m == known {
			return true
		}
	}
	return false
}

// Utensil is the main vessel the variants must be adapted to
type Utensil string

const (
	UtensilPot           Utensil = "Pot"
	UtensilFryingPan     Utensil = "FryingPan"
	UtensilDeepPan       Utensil = "DeepPan"
	UtensilWok           Utensil = "Wok"
	UtensilBakingSheet   Utensil = "BakingSheet"
	UtensilGlassDish     Utensil = "GlassDish"
	UtensilBlender       Utensil = "Blender"
	UtensilFoodProcessor Utensil = "FoodProcessor"
	UtensilMixer         Utensil = "Mixer"
	UtensilGrillPan      Utensil = "GrillPan"
	UtensilClayPot       Utensil = "ClayPot"
)

// Utensils is the closed utensil vocabulary
var Utensils = []Utensil{
	UtensilPot, UtensilFryingPan, UtensilDeepPan, UtensilWok, UtensilBakingSheet, UtensilGlassDish,
	UtensilBlender, UtensilFoodProcessor, UtensilMixer, UtensilGrillPan, UtensilClayPot,
}

// Valid reports whether the utensil is known
func (u Utensil) Valid() bool {
	for _, known := range Utensils {
		if u == known {
			return true
		}
	}
	return false
}

// Parameter errors
var (
	ErrBlankBaseName   = errors.New("base recipe name is required")
	ErrUnsupportedLang = errors.New("unsupported language")
	ErrUnknownMethod   = errors.New("unknown cooking method")
	ErrUnknownUtensil  = errors.New("unknown utensil")
	ErrIngredientIndex = errors.New("ingredient index out of range")
)

// Params is the input to one evolution
type Params struct {
	BaseName      string        `json:"baseName"`
	Feedback      string        `json:"feedback"`
	Ingredients   []string      `json:"ingredients"`
	CookingMethod CookingMethod `json:"cookingMethod"`
	Utensil       Utensil       `json:"utensil"`
	Language      Language      `json:"language"`
}

// DefaultParams returns the initial capture state
func DefaultParams() Params {
	return Params{
		Ingredients:   []string{},
		CookingMethod: MethodStove,
		Utensil:       UtensilPot,
		Language:      DefaultLanguage,
	}
}

// Normalize trims text fields and fills in defaults for unset enums
func (p Params) Normalize() Params {
	out := p
	out.BaseName = strings.TrimSpace(p.BaseName)
	out.Feedback = strings.TrimSpace(p.Feedback)
	out.Ingredients = make([]string, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		out.Ingredients = AddIngredient(out.Ingredients, ing)
	}
	if out.CookingMethod == "" {
		out.CookingMethod = MethodStove
	}
	if out.Utensil == "" {
		out.Utensil = UtensilPot
	}
	if out.Language == "" {
		out.Language = DefaultLanguage
	}
	return out
}

// Validate checks the parameters needed before any backend call
func (p Params) Validate() error {
	if strings.TrimSpace(p.BaseName) == "" {
		return ErrBlankBaseName
	}
	if !p.Language.Valid() {
		return ErrUnsupportedLang
	}
	if !p.CookingMethod.Valid() {
		return ErrUnknownMethod
	}
	if !p.Utensil.Valid() {
		return ErrUnknownUtensil
	}
	return nil
}

// AddIngredient appends a trimmed ingredient unless it is blank or already listed
func AddIngredient(list []string, ingredient string) []string {
	ingredient = strings.TrimSpace(ingredient)
	if ingredient == "" {
		return list
	}
	for _, existing := range list {
		if existing == ingredient {
			return list
		}
	}
	return append(list, ingredient)
}

// RemoveIngredient removes the entry at index, preserving order
func RemoveIngredient(list []string, index int) ([]string, error) {
	if index < 0 || index >= len(list) {
		return list, ErrIngredientIndex
	}
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}

// Seed pre-fills a new evolution from an existing variant
type Seed struct {
	BaseName    string   `json:"baseName"`
	Ingredients []string `json:"ingredients"`
}
