// Package modeltest holds behaviour tests shared by every model.ModelStore
// implementation.
package modeltest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/model"
)

func NewModel(id, name, arch string, params int64, tags ...string) *model.Model {
	return &model.Model{
		ID:           id,
		Name:         name,
		Architecture: arch,
		Parameters:   params,
		Tags:         tags,
		CreatedAt:    1700000000,
		UpdatedAt:    1700000000,
	}
}

// RunStoreTests exercises store behaviour. newStore must return an empty store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) model.ModelStore) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "llama-3-8b", "llama", 8_000_000_000, "chat", "code")))

		got, err := s.Get(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "llama-3-8b", got.Name)
		assert.Equal(t, int64(8_000_000_000), got.Parameters)
		assert.Equal(t, []string{"chat", "code"}, got.Tags)

		byName, err := s.GetByName(ctx, "llama-3-8b")
		require.NoError(t, err)
		assert.Equal(t, "m1", byName.ID)

		_, err = s.Get(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrModelNotFound)
		_, err = s.GetByName(ctx, "missing")
		assert.True(t, unit.IsNotFound(err))
	})

	t.Run("duplicate id or name", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "a", "llama", 1)))
		assert.ErrorIs(t, s.Create(ctx, NewModel("m1", "b", "llama", 1)), model.ErrModelAlreadyExists)
		assert.ErrorIs(t, s.Create(ctx, NewModel("m2", "a", "llama", 1)), model.ErrModelAlreadyExists)
	})

	t.Run("list with filter and paging", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "c-model", "llama", 1, "chat")))
		require.NoError(t, s.Create(ctx, NewModel("m2", "a-model", "llama", 1)))
		require.NoError(t, s.Create(ctx, NewModel("m3", "b-model", "mistral", 1, "chat")))

		all, total, err := s.List(ctx, model.ModelFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, all, 3)
		assert.Equal(t, "a-model", all[0].Name)

		llama, total, err := s.List(ctx, model.ModelFilter{Architecture: "llama"})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, llama, 2)

		chat, _, err := s.List(ctx, model.ModelFilter{Tag: "chat"})
		require.NoError(t, err)
		assert.Len(t, chat, 2)

		page, total, err := s.List(ctx, model.ModelFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 1)
		assert.Equal(t, "b-model", page[0].Name)

		empty, _, err := s.List(ctx, model.ModelFilter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		m := NewModel("m1", "a", "llama", 1)
		require.NoError(t, s.Create(ctx, m))

		m.Tags = []string{"updated"}
		m.UpdatedAt = 1800000000
		require.NoError(t, s.Update(ctx, m))
		got, err := s.Get(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, []string{"updated"}, got.Tags)
		assert.Equal(t, int64(1800000000), got.UpdatedAt)

		assert.ErrorIs(t, s.Update(ctx, NewModel("nope", "x", "y", 1)), model.ErrModelNotFound)
	})

	t.Run("versions", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "a", "llama", 7_000_000_000)))

		require.NoError(t, s.AddVersion(ctx, &model.Version{ID: "v1", ModelID: "m1", Version: "v1.0", Quantization: "fp16", QuantizationBits: 16, VRAMRequirementGB: 16.8, CreatedAt: 1}))
		require.NoError(t, s.AddVersion(ctx, &model.Version{ID: "v2", ModelID: "m1", Version: "v1.0-awq", Quantization: "awq", QuantizationBits: 4, VRAMRequirementGB: 4.2, CreatedAt: 2}))
		assert.ErrorIs(t, s.AddVersion(ctx, &model.Version{ID: "v1", ModelID: "m1", Version: "dup", Quantization: "fp16"}), model.ErrVersionExists)
		assert.ErrorIs(t, s.AddVersion(ctx, &model.Version{ID: "v9", ModelID: "missing", Version: "x", Quantization: "fp16"}), model.ErrModelNotFound)

		versions, err := s.ListVersions(ctx, "m1")
		require.NoError(t, err)
		require.Len(t, versions, 2)
		assert.Equal(t, "v1", versions[0].ID)
		assert.Equal(t, "v2", versions[1].ID)
		assert.Equal(t, 4.2, versions[1].VRAMRequirementGB)

		v, err := s.GetVersion(ctx, "v2")
		require.NoError(t, err)
		assert.Equal(t, "awq", v.Quantization)
		_, err = s.GetVersion(ctx, "v9")
		assert.ErrorIs(t, err, model.ErrVersionNotFound)

		_, err = s.ListVersions(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrModelNotFound)
	})

	t.Run("use cases", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "alpha", "llama", 1)))
		require.NoError(t, s.Create(ctx, NewModel("m2", "beta", "llama", 1)))
		require.NoError(t, s.Create(ctx, NewModel("m3", "gamma", "llama", 1)))
		require.NoError(t, s.Create(ctx, NewModel("m4", "delta", "llama", 1)))

		require.NoError(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "m1", Category: "chat", SuitabilityScore: 0.7, Recommended: true}))
		require.NoError(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "m2", Category: "chat", Subcategory: "support", SuitabilityScore: 0.9, Recommended: true}))
		require.NoError(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "m3", Category: "chat", SuitabilityScore: 0.95, Recommended: false}))
		require.NoError(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "m4", Category: "code", Subcategory: "chat", SuitabilityScore: 0.7, Recommended: true}))
		assert.ErrorIs(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "missing", Category: "chat"}), model.ErrModelNotFound)

		chat, err := s.SearchByUseCase(ctx, "chat")
		require.NoError(t, err)
		names := make([]string, len(chat))
		for i, m := range chat {
			names[i] = m.Name
		}
		assert.Equal(t, []string{"beta", "alpha", "delta"}, names, "recommended only, suitability desc then name")

		support, err := s.SearchByUseCase(ctx, "support")
		require.NoError(t, err)
		require.Len(t, support, 1)
		assert.Equal(t, "m2", support[0].ID)

		none, err := s.SearchByUseCase(ctx, "vision")
		require.NoError(t, err)
		assert.Empty(t, none)

		// reassigning replaces the entry
		require.NoError(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "m1", Category: "chat", SuitabilityScore: 0.1, Recommended: false}))
		uc, err := s.ListUseCases(ctx, "m1")
		require.NoError(t, err)
		require.Len(t, uc, 1)
		assert.False(t, uc[0].Recommended)
		assert.Equal(t, 0.1, uc[0].SuitabilityScore)
	})

	t.Run("search", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "Llama-3-8B", "llama", 8_000_000_000, "chat")))
		require.NoError(t, s.Create(ctx, NewModel("m2", "Llama-3-70B", "llama", 70_000_000_000)))
		require.NoError(t, s.Create(ctx, NewModel("m3", "Mistral-7B", "mistral", 7_000_000_000, "chat")))

		byName, err := s.Search(ctx, model.SearchFilter{Query: "llama"})
		require.NoError(t, err)
		require.Len(t, byName, 2)
		assert.Equal(t, "m2", byName[0].ID, "largest first")

		byTag, err := s.Search(ctx, model.SearchFilter{Query: "chat"})
		require.NoError(t, err)
		require.Len(t, byTag, 2)
		assert.Equal(t, "m1", byTag[0].ID)

		sized, err := s.Search(ctx, model.SearchFilter{MinParameters: 7_500_000_000, MaxParameters: 10_000_000_000})
		require.NoError(t, err)
		require.Len(t, sized, 1)
		assert.Equal(t, "m1", sized[0].ID)

		arch, err := s.Search(ctx, model.SearchFilter{Architecture: "mistral"})
		require.NoError(t, err)
		require.Len(t, arch, 1)

		limited, err := s.Search(ctx, model.SearchFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		none, err := s.Search(ctx, model.SearchFilter{Query: "gpt"})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("delete cascades", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, NewModel("m1", "a", "llama", 1)))
		require.NoError(t, s.AddVersion(ctx, &model.Version{ID: "v1", ModelID: "m1", Version: "v1", Quantization: "fp16"}))
		require.NoError(t, s.AssignUseCase(ctx, &model.UseCase{ModelID: "m1", Category: "chat", SuitabilityScore: 1, Recommended: true}))

		require.NoError(t, s.Delete(ctx, "m1"))
		_, err := s.Get(ctx, "m1")
		assert.ErrorIs(t, err, model.ErrModelNotFound)
		_, err = s.GetVersion(ctx, "v1")
		assert.ErrorIs(t, err, model.ErrVersionNotFound)
		hits, err := s.SearchByUseCase(ctx, "chat")
		require.NoError(t, err)
		assert.Empty(t, hits)

		assert.ErrorIs(t, s.Delete(ctx, "m1"), model.ErrModelNotFound)
	})
}
