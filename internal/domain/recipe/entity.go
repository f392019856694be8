// Package recipe contains the recipe variant model produced by generation
// and curated in the notebook.
package recipe

import (
	"strings"
)

// Variant is one generated recipe. The same value shape is used for the
// working set, the saved collection and the persisted document.
type Variant struct {
	ID                 string          `json:"id,omitempty"`
	Name               string          `json:"name"`
	MealType           string          `json:"mealType"`
	VariationFocus     string          `json:"variationFocus"`
	Difficulty         Difficulty      `json:"difficulty"`
	EstimatedMinutes   Minutes         `json:"estimatedMinutes"`
	ChangesSummary     string          `json:"changesSummary"`
	FeedbackResolution string          `json:"feedbackResolution"`
	Ingredients        []string        `json:"ingredients"`
	Steps              []string        `json:"steps"`
	FlavorProfile      FlavorProfile   `json:"flavorProfile"`
	Category           Category        `json:"category"`
	MainProtein        MainProtein     `json:"mainProtein"`
	DietAttributes     []DietAttribute `json:"dietAttributes"`
	SearchKeywords     []string        `json:"searchKeywords"`

	// Enrichment caches. Populated lazily, at most once each.
	ImageURL   string   `json:"imageUrl,omitempty"`
	SafetyTips []string `json:"safetyTips,omitempty"`
}

// HasID reports whether the variant has been assigned an identity
func (v Variant) HasID() bool {
	return v.ID != ""
}

// HasImage reports whether the image cache is populated
func (v Variant) HasImage() bool {
	return v.ImageURL != ""
}

// HasSafetyTips reports whether the safety cache is populated
func (v Variant) HasSafetyTips() bool {
	return len(v.SafetyTips) > 0
}

// WithID returns a copy carrying id. An already assigned id is never replaced.
func (v Variant) WithID(id string) (Variant, error) {
	if v.HasID() && v.ID != id {
		return v, ErrIDAlreadyAssigned
	}
	out := v.Clone()
	out.ID = id
	return out, nil
}

// Clone returns a deep copy so callers never share slices between sets
func (v Variant) Clone() Variant {
	out := v
	out.Ingredients = cloneStrings(v.Ingredients)
	out.Steps = cloneStrings(v.Steps)
	out.SearchKeywords = cloneStrings(v.SearchKeywords)
	out.SafetyTips = cloneStrings(v.SafetyTips)
	if v.DietAttributes != nil {
		out.DietAttributes = append([]DietAttribute(nil), v.DietAttributes...)
	}
	return out
}

// Patch is a field level update applied to every copy of an entity.
// Nil fields are left untouched.
type Patch struct {
	Name       *string
	ImageURL   *string
	SafetyTips []string
}

// NamePatch builds a rename patch
func NamePatch(name string) Patch {
	return Patch{Name: &name}
}

// ImagePatch builds an image enrichment patch
func ImagePatch(uri string) Patch {
	return Patch{ImageURL: &uri}
}

// SafetyPatch builds a safety tips enrichment patch
func SafetyPatch(tips []string) Patch {
	return Patch{SafetyTips: cloneStrings(tips)}
}

// Validate checks the patch before it is propagated
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrBlankName
	}
	return nil
}

// IsZero reports whether the patch changes nothing
func (p Patch) IsZero() bool {
	return p.Name == nil && p.ImageURL == nil && p.SafetyTips == nil
}

// Apply returns a copy of v with the patch merged in. Identity is preserved.
func (p Patch) Apply(v Variant) Variant {
	out := v.Clone()
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.ImageURL != nil {
		out.ImageURL = *p.ImageURL
	}
	if p.SafetyTips != nil {
		out.SafetyTips = cloneStrings(p.SafetyTips)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
