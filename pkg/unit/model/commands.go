package model

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/hardware"
	"github.com/jguan/model-catalog/pkg/unit/ptrs"
)

func generateModelID() string {
	return "model-" + uuid.New().String()[:8]
}

func generateVersionID() string {
	return "ver-" + uuid.New().String()[:8]
}

func inputMap(input any) (map[string]any, error) {
	m, ok := unit.InputMap(input)
	if !ok {
		return nil, fmt.Errorf("expected object input, got %T: %w", input, ErrInvalidInput)
	}
	return m, nil
}

func requireString(m map[string]any, key string) (string, error) {
	s := strings.TrimSpace(unit.GetString(m, key))
	if s == "" {
		return "", fmt.Errorf("%s is required: %w", key, ErrInvalidInput)
	}
	return s, nil
}

func publish(events unit.EventPublisher, event unit.Event) {
	if events == nil {
		return
	}
	if err := events.Publish(event); err != nil {
		slog.Warn("failed to publish event", "type", event.Type(), "error", err)
	}
}

func modelIDField() unit.Field {
	return unit.Field{
		Name:   "model_id",
		Schema: unit.Schema{Type: "string", Description: "Model ID", MinLength: ptrs.Int(1)},
	}
}

type CreateCommand struct {
	store  ModelStore
	events unit.EventPublisher
}

func NewCreateCommand(store ModelStore) *CreateCommand {
	return &CreateCommand{store: store}
}

func NewCreateCommandWithEvents(store ModelStore, events unit.EventPublisher) *CreateCommand {
	return &CreateCommand{store: store, events: events}
}

func (c *CreateCommand) Name() string        { return "model.create" }
func (c *CreateCommand) Domain() string      { return "model" }
func (c *CreateCommand) Description() string { return "Add a model to the catalog" }

func (c *CreateCommand) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"id": {
				Name:   "id",
				Schema: unit.Schema{Type: "string", Description: "Optional stable ID; generated when omitted"},
			},
			"name": {
				Name:   "name",
				Schema: unit.Schema{Type: "string", Description: "Unique model name", MinLength: ptrs.Int(1)},
			},
			"architecture": {
				Name:   "architecture",
				Schema: unit.Schema{Type: "string", Description: "Model family, e.g. llama, mistral"},
			},
			"parameters": {
				Name:   "parameters",
				Schema: unit.Schema{Type: "number", Description: "Parameter count", Min: ptrs.Float64(1)},
			},
			"base_model": {
				Name:   "base_model",
				Schema: unit.Schema{Type: "string", Description: "Parent model when fine-tuned"},
			},
			"tags": {
				Name:   "tags",
				Schema: unit.Schema{Type: "array", Items: &unit.Schema{Type: "string"}},
			},
		},
		Required: []string{"name", "architecture", "parameters"},
	}
}

func (c *CreateCommand) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model_id": {Name: "model_id", Schema: unit.Schema{Type: "string"}},
		},
	}
}

func (c *CreateCommand) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:       map[string]any{"name": "llama-3-8b", "architecture": "llama", "parameters": 8030000000, "tags": []string{"chat"}},
			Output:      map[string]any{"model_id": "model-1a2b3c4d"},
			Description: "Register an 8B llama model",
		},
	}
}

func (c *CreateCommand) Execute(ctx context.Context, input any) (any, error) {
	if c.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	name, err := requireString(m, "name")
	if err != nil {
		return nil, err
	}
	arch, err := requireString(m, "architecture")
	if err != nil {
		return nil, err
	}
	params, ok := unit.GetInt64(m, "parameters")
	if !ok || params <= 0 {
		return nil, fmt.Errorf("parameters must be a positive integer: %w", ErrInvalidInput)
	}

	id := unit.GetString(m, "id")
	if id == "" {
		id = generateModelID()
	}
	now := time.Now().Unix()
	model := &Model{
		ID:           id,
		Name:         name,
		Architecture: strings.ToLower(arch),
		Parameters:   params,
		BaseModel:    unit.GetString(m, "base_model"),
		Tags:         unit.GetStringSlice(m, "tags"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.store.Create(ctx, model); err != nil {
		return nil, fmt.Errorf("create model %s: %w", name, err)
	}
	publish(c.events, NewCreatedEvent(model))

	return map[string]any{"model_id": model.ID}, nil
}

type DeleteCommand struct {
	store  ModelStore
	events unit.EventPublisher
}

func NewDeleteCommand(store ModelStore) *DeleteCommand {
	return &DeleteCommand{store: store}
}

func NewDeleteCommandWithEvents(store ModelStore, events unit.EventPublisher) *DeleteCommand {
	return &DeleteCommand{store: store, events: events}
}

func (c *DeleteCommand) Name() string        { return "model.delete" }
func (c *DeleteCommand) Domain() string      { return "model" }
func (c *DeleteCommand) Description() string { return "Remove a model with its versions and use cases" }

func (c *DeleteCommand) InputSchema() unit.Schema {
	return unit.Schema{
		Type:       "object",
		Properties: map[string]unit.Field{"model_id": modelIDField()},
		Required:   []string{"model_id"},
	}
}

func (c *DeleteCommand) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"success": {Name: "success", Schema: unit.Schema{Type: "boolean"}},
		},
	}
}

func (c *DeleteCommand) Examples() []unit.Example {
	return []unit.Example{
		{Input: map[string]any{"model_id": "model-1a2b3c4d"}, Output: map[string]any{"success": true}},
	}
}

func (c *DeleteCommand) Execute(ctx context.Context, input any) (any, error) {
	if c.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	id, err := requireString(m, "model_id")
	if err != nil {
		return nil, err
	}

	existing, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", id, err)
	}
	if err := c.store.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete model %s: %w", id, err)
	}
	publish(c.events, NewDeletedEvent(id, existing.Name))

	return map[string]any{"success": true}, nil
}

// AddVersionCommand registers a quantized build of a model. The VRAM
// requirement is estimated when not supplied and the scheme is known.
type AddVersionCommand struct {
	store  ModelStore
	events unit.EventPublisher
}

func NewAddVersionCommand(store ModelStore) *AddVersionCommand {
	return &AddVersionCommand{store: store}
}

func NewAddVersionCommandWithEvents(store ModelStore, events unit.EventPublisher) *AddVersionCommand {
	return &AddVersionCommand{store: store, events: events}
}

func (c *AddVersionCommand) Name() string        { return "model.add_version" }
func (c *AddVersionCommand) Domain() string      { return "model" }
func (c *AddVersionCommand) Description() string { return "Add a quantized version to a model" }

func (c *AddVersionCommand) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model_id": modelIDField(),
			"id": {
				Name:   "id",
				Schema: unit.Schema{Type: "string", Description: "Optional stable ID; generated when omitted"},
			},
			"version": {
				Name:   "version",
				Schema: unit.Schema{Type: "string", Description: "Version label, e.g. v1.0", MinLength: ptrs.Int(1)},
			},
			"quantization": {
				Name:   "quantization",
				Schema: unit.Schema{Type: "string", Description: "fp32, fp16, bf16, int8, int4, awq or gptq"},
			},
			"quantization_bits": {
				Name:   "quantization_bits",
				Schema: unit.Schema{Type: "integer", Min: ptrs.Float64(1), Max: ptrs.Float64(64)},
			},
			"format": {
				Name:   "format",
				Schema: unit.Schema{Type: "string", Description: "Artifact format, e.g. safetensors, gguf"},
			},
			"artifact_uri": {
				Name:   "artifact_uri",
				Schema: unit.Schema{Type: "string"},
			},
			"vram_requirement_gb": {
				Name:   "vram_requirement_gb",
				Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0)},
			},
		},
		Required: []string{"model_id", "version", "quantization"},
	}
}

func (c *AddVersionCommand) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"version_id":          {Name: "version_id", Schema: unit.Schema{Type: "string"}},
			"vram_requirement_gb": {Name: "vram_requirement_gb", Schema: unit.Schema{Type: "number"}},
		},
	}
}

func (c *AddVersionCommand) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"model_id": "model-1a2b3c4d", "version": "v1.0", "quantization": "fp16", "format": "safetensors"},
			Output: map[string]any{"version_id": "ver-5e6f7a8b", "vram_requirement_gb": 19.27},
		},
	}
}

func (c *AddVersionCommand) Execute(ctx context.Context, input any) (any, error) {
	if c.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	modelID, err := requireString(m, "model_id")
	if err != nil {
		return nil, err
	}
	label, err := requireString(m, "version")
	if err != nil {
		return nil, err
	}
	quant, err := requireString(m, "quantization")
	if err != nil {
		return nil, err
	}
	quant = strings.ToLower(quant)

	model, err := c.store.Get(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", modelID, err)
	}

	id := unit.GetString(m, "id")
	if id == "" {
		id = generateVersionID()
	}
	v := &Version{
		ID:           id,
		ModelID:      modelID,
		Version:      label,
		Quantization: quant,
		Format:       unit.GetString(m, "format"),
		ArtifactURI:  unit.GetString(m, "artifact_uri"),
		CreatedAt:    time.Now().Unix(),
	}

	if bits, ok := unit.GetInt(m, "quantization_bits"); ok {
		v.QuantizationBits = bits
	} else if bpp, known := hardware.BytesPerParam(hardware.Quantization(quant)); known {
		v.QuantizationBits = int(bpp * 8)
	}

	if gb, ok := unit.GetFloat64(m, "vram_requirement_gb"); ok {
		v.VRAMRequirementGB = gb
	} else if gb, err := hardware.EstimateVRAM(model.Parameters, hardware.Quantization(quant), 1, hardware.DefaultSequenceLength); err == nil {
		v.VRAMRequirementGB = gb
	} else {
		slog.Warn("cannot estimate vram for version", "model_id", modelID, "quantization", quant, "error", err)
	}

	if err := c.store.AddVersion(ctx, v); err != nil {
		return nil, fmt.Errorf("add version %s to %s: %w", label, modelID, err)
	}
	publish(c.events, NewVersionAddedEvent(v))

	return map[string]any{"version_id": v.ID, "vram_requirement_gb": v.VRAMRequirementGB}, nil
}

type AssignUseCaseCommand struct {
	store  ModelStore
	events unit.EventPublisher
}

func NewAssignUseCaseCommand(store ModelStore) *AssignUseCaseCommand {
	return &AssignUseCaseCommand{store: store}
}

func NewAssignUseCaseCommandWithEvents(store ModelStore, events unit.EventPublisher) *AssignUseCaseCommand {
	return &AssignUseCaseCommand{store: store, events: events}
}

func (c *AssignUseCaseCommand) Name() string        { return "model.assign_use_case" }
func (c *AssignUseCaseCommand) Domain() string      { return "model" }
func (c *AssignUseCaseCommand) Description() string { return "Record how well a model suits a use case" }

func (c *AssignUseCaseCommand) InputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"model_id": modelIDField(),
			"category": {
				Name:   "category",
				Schema: unit.Schema{Type: "string", Description: "Use-case category, e.g. chat", MinLength: ptrs.Int(1)},
			},
			"subcategory": {
				Name:   "subcategory",
				Schema: unit.Schema{Type: "string", Description: "Optional subcategory, e.g. customer_support"},
			},
			"suitability_score": {
				Name:   "suitability_score",
				Schema: unit.Schema{Type: "number", Min: ptrs.Float64(0), Max: ptrs.Float64(1)},
			},
			"recommended": {
				Name:   "recommended",
				Schema: unit.Schema{Type: "boolean", Default: true},
			},
		},
		Required: []string{"model_id", "category", "suitability_score"},
	}
}

func (c *AssignUseCaseCommand) OutputSchema() unit.Schema {
	return unit.Schema{
		Type: "object",
		Properties: map[string]unit.Field{
			"success": {Name: "success", Schema: unit.Schema{Type: "boolean"}},
		},
	}
}

func (c *AssignUseCaseCommand) Examples() []unit.Example {
	return []unit.Example{
		{
			Input:  map[string]any{"model_id": "model-1a2b3c4d", "category": "chat", "suitability_score": 0.9},
			Output: map[string]any{"success": true},
		},
	}
}

func (c *AssignUseCaseCommand) Execute(ctx context.Context, input any) (any, error) {
	if c.store == nil {
		return nil, ErrStoreNotSet
	}
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}
	modelID, err := requireString(m, "model_id")
	if err != nil {
		return nil, err
	}
	category, err := requireString(m, "category")
	if err != nil {
		return nil, err
	}
	score, ok := unit.GetFloat64(m, "suitability_score")
	if !ok || score < 0 || score > 1 {
		return nil, fmt.Errorf("suitability_score must be within [0, 1]: %w", ErrInvalidInput)
	}

	u := &UseCase{
		ModelID:          modelID,
		Category:         category,
		Subcategory:      unit.GetString(m, "subcategory"),
		SuitabilityScore: score,
		Recommended:      unit.GetBool(m, "recommended", true),
	}
	if err := c.store.AssignUseCase(ctx, u); err != nil {
		return nil, fmt.Errorf("assign use case %s to %s: %w", category, modelID, err)
	}
	publish(c.events, NewUseCaseAssignedEvent(u))

	return map[string]any{"success": true}, nil
}
