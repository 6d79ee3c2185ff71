package service

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qgsape/internal/domain"
	"qgsape/internal/repository"
)

func names(nodes []*CategoryNode) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func TestBuildTree(t *testing.T) {
	tree := BuildTree([]domain.Category{
		{ID: "1", Name: "Homme", IsVisible: true},
		{ID: "2", Name: "Costumes", ParentID: "1", IsVisible: true},
		{ID: "3", Name: "Chemises", ParentID: "1", IsVisible: true},
		{ID: "4", Name: "Accessoires", ParentID: "deleted", IsVisible: true},
	})
	require.Equal(t, []string{"Accessoires", "Homme"}, names(tree))
	assert.Equal(t, []string{"Chemises", "Costumes"}, names(tree[1].Children))
}

func TestBuildTree_BreaksCycles(t *testing.T) {
	tree := BuildTree([]domain.Category{
		{ID: "a", Name: "A", ParentID: "c"},
		{ID: "b", Name: "B", ParentID: "a"},
		{ID: "c", Name: "C", ParentID: "b"},
		{ID: "d", Name: "D", ParentID: "a"},
		{ID: "e", Name: "E", ParentID: "e"},
	})
	require.Equal(t, []string{"A", "E"}, names(tree))
	a := tree[0]
	assert.Equal(t, []string{"B", "D"}, names(a.Children))
	assert.Equal(t, []string{"C"}, names(a.Children[0].Children))
	assert.Empty(t, a.Children[0].Children[0].Children)
}

func TestVisibleTree_DropsHiddenBranches(t *testing.T) {
	tree := VisibleTree(BuildTree([]domain.Category{
		{ID: "1", Name: "Homme", IsVisible: true},
		{ID: "2", Name: "Soldes", ParentID: "1", IsVisible: false},
		{ID: "3", Name: "Fin de série", ParentID: "2", IsVisible: true},
		{ID: "4", Name: "Femme", IsVisible: false},
	}))
	require.Equal(t, []string{"Homme"}, names(tree))
	assert.Empty(t, tree[0].Children)
}

func TestCategoryService(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewMemoryRepositories(repository.NewMemoryStore())
	svc := NewCategoryService(repos.Categories, repos.Tx, logrus.New())

	root, err := svc.Create(ctx, domain.Category{Name: "Homme", IsVisible: true})
	require.NoError(t, err)
	child, err := svc.Create(ctx, domain.Category{Name: "Costumes", ParentID: root.ID, IsVisible: true})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.Category{Name: "X", ParentID: "nope"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Create(ctx, domain.Category{Name: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// re-parenting the root under its child would loop
	root.ParentID = child.ID
	_, err = svc.Update(ctx, *root)
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.SetVisibility(ctx, []string{root.ID, child.ID}, false))
	tree, err := svc.Tree(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, tree)
	tree, err = svc.Tree(ctx, false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Children, 1)

	// unknown id rolls back the whole batch
	err = svc.SetVisibility(ctx, []string{root.ID, "nope"}, true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	got, _ := svc.Get(ctx, root.ID)
	assert.False(t, got.IsVisible)

	require.NoError(t, svc.Delete(ctx, root.ID))
	tree, _ = svc.Tree(ctx, false)
	assert.Equal(t, []string{"Costumes"}, names(tree), "orphans become roots")
}
