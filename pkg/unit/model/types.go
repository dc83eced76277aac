package model

// Model is a catalog entry for one base or fine-tuned model.
type Model struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Architecture string   `json:"architecture"`
	Parameters   int64    `json:"parameters"`
	BaseModel    string   `json:"base_model,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CreatedAt    int64    `json:"created_at"`
	UpdatedAt    int64    `json:"updated_at"`
}

// Version is one packaged build of a model, e.g. an int4 AWQ export.
type Version struct {
	ID                string  `json:"id"`
	ModelID           string  `json:"model_id"`
	Version           string  `json:"version"`
	Quantization      string  `json:"quantization"`
	QuantizationBits  int     `json:"quantization_bits"`
	Format            string  `json:"format,omitempty"`
	ArtifactURI       string  `json:"artifact_uri,omitempty"`
	VRAMRequirementGB float64 `json:"vram_requirement_gb"`
	CreatedAt         int64   `json:"created_at"`
}

// UseCase records how well a model suits a category of work. Subcategory
// may be empty.
type UseCase struct {
	ModelID          string  `json:"model_id"`
	Category         string  `json:"category"`
	Subcategory      string  `json:"subcategory,omitempty"`
	SuitabilityScore float64 `json:"suitability_score"`
	Recommended      bool    `json:"recommended"`
}

// Matches reports whether useCase names this entry's category or subcategory.
func (u UseCase) Matches(useCase string) bool {
	return useCase != "" && (u.Category == useCase || u.Subcategory == useCase)
}

type ModelFilter struct {
	Architecture string
	Tag          string
	Limit        int
	Offset       int
}

// SearchFilter selects models by free text and size. Query matches a name
// substring case-insensitively or a tag exactly. Zero parameter bounds are
// ignored.
type SearchFilter struct {
	Query         string
	Architecture  string
	MinParameters int64
	MaxParameters int64
	Limit         int
}

// Details bundles a model with its versions and use cases.
type Details struct {
	Model    Model     `json:"model"`
	Versions []Version `json:"versions"`
	UseCases []UseCase `json:"use_cases"`
}
