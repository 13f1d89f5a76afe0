package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olapp/internal/shared/catalog"
	"olapp/internal/shared/catalog/catalogtest"
	"olapp/pkg/logging"
)

func TestDefaultCategories_ParentsFirst(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range defaultCategories {
		require.False(t, seen[c.Slug], "duplicate slug %s", c.Slug)
		if c.Parent != "" {
			assert.True(t, seen[c.Parent], "%s listed before parent %s", c.Slug, c.Parent)
		}
		seen[c.Slug] = true
	}
}

func TestSetupCategories_CreatesTree(t *testing.T) {
	fake := catalogtest.New()
	ctx := context.Background()

	res := setupCategories(ctx, fake, defaultCategories, logging.Nop(), false)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Existing)
	assert.Len(t, res.Created, len(defaultCategories))

	parent, err := catalog.FindCategoryBySlug(ctx, fake, "comida-bebidas")
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, int64(0), parent.Parent)

	child, err := catalog.FindCategoryBySlug(ctx, fake, "panaderias")
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.Equal(t, parent.ID, child.Parent)
}

func TestSetupCategories_SkipsExisting(t *testing.T) {
	fake := catalogtest.New()
	hogar := fake.AddCategory("Hogar", "hogar", 0)
	fake.AddCategory("Muebles", "muebles", hogar.ID)

	specs := []categorySpec{
		{Name: "Hogar", Slug: "hogar"},
		{Name: "Muebles", Slug: "muebles", Parent: "hogar"},
		{Name: "Jardín", Slug: "jardin", Parent: "hogar"},
	}
	res := setupCategories(context.Background(), fake, specs, logging.Nop(), false)
	assert.Equal(t, []string{"hogar", "muebles"}, res.Existing)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "jardin", res.Created[0].Slug)
	assert.Equal(t, hogar.ID, res.Created[0].Parent)
	assert.Equal(t, 1, fake.Calls["CreateCategory"])

	// 再次执行全部跳过
	res = setupCategories(context.Background(), fake, specs, logging.Nop(), false)
	assert.Len(t, res.Existing, 3)
	assert.Empty(t, res.Created)
}

func TestSetupCategories_MissingParent(t *testing.T) {
	fake := catalogtest.New()
	specs := []categorySpec{
		{Name: "Flores", Slug: "flores", Parent: "regalos"},
		{Name: "Hogar", Slug: "hogar"},
	}
	res := setupCategories(context.Background(), fake, specs, logging.Nop(), false)
	require.Contains(t, res.Errors, "flores")
	require.Len(t, res.Created, 1)
	assert.Equal(t, "hogar", res.Created[0].Slug)
}

func TestSetupCategories_DryRun(t *testing.T) {
	fake := catalogtest.New()
	res := setupCategories(context.Background(), fake, defaultCategories[:7], logging.Nop(), true)
	assert.Empty(t, res.Errors)
	assert.Len(t, res.Created, 7)
	assert.Equal(t, 0, fake.Calls["CreateCategory"])
}

func TestSetupCategories_CatalogError(t *testing.T) {
	fake := catalogtest.New()
	fake.Err = errors.New("woocommerce unavailable")

	res := setupCategories(context.Background(), fake, defaultCategories[:3], logging.Nop(), false)
	assert.Len(t, res.Errors, 3)
	assert.Empty(t, res.Created)
}
