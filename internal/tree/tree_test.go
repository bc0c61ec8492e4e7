package tree_test

import (
	"testing"

	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/testutil/categories"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	name  string
	level int
}

func rows(entries []tree.Entry) []row {
	out := make([]row, len(entries))
	for i, e := range entries {
		out[i] = row{name: e.Category.Name, level: e.Level}
	}
	return out
}

func entryIDs(entries []tree.Entry) []int {
	ids := make([]int, len(entries))
	for i, e := range entries {
		ids[i] = e.Category.ID
	}
	return ids
}

func TestFlatten_Chain(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureChain).Build()

	got := tree.Flatten(forest)

	assert.Equal(t, []row{{"A", 0}, {"B", 1}, {"C", 2}}, rows(got))
}

func TestFlatten_PreOrderAndDepth(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	got := tree.Flatten(forest)

	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 20, 21, 22, 30}, entryIDs(got))
	assert.Equal(t, forest.IDs(), entryIDs(got))

	depths := map[int]int{10: 0, 11: 1, 12: 2, 13: 2, 14: 1, 15: 2, 16: 3, 20: 0, 21: 1, 22: 1, 30: 0}
	for _, e := range got {
		assert.Equal(t, depths[e.Category.ID], e.Level, "depth of %s", e.Category.Name)
	}
}

func TestFlatten_VisitsEachNodeOnce(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	seen := make(map[int]int)
	for _, e := range tree.Flatten(forest) {
		seen[e.Category.ID]++
	}

	assert.Len(t, seen, tree.Count(forest))
	for id, n := range seen {
		assert.Equal(t, 1, n, "category %d emitted %d times", id, n)
	}
}

func TestFlatten_IgnoresStoredLevel(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureChain).Build()
	forest.MustFind(t, 3).Level = 7
	forest.MustFind(t, 1).Level = 4

	got := tree.Flatten(forest)

	assert.Equal(t, []row{{"A", 0}, {"B", 1}, {"C", 2}}, rows(got))
}

func TestFlatten_Restartable(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	first := tree.Flatten(forest)
	second := tree.Flatten(forest)

	assert.Equal(t, first, second)
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, tree.Flatten(nil))
	assert.Empty(t, tree.Flatten([]*model.Category{}))
}

func TestWalk_StopsEarly(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	var visited []int
	tree.Walk(forest, func(c *model.Category, _ int) bool {
		visited = append(visited, c.ID)
		return c.ID != 14
	})

	assert.Equal(t, []int{10, 11, 12, 13, 14}, visited)
}

func TestIsDescendant(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	tests := []struct {
		name     string
		ancestor int
		node     int
		want     bool
	}{
		{name: "direct child", ancestor: 10, node: 11, want: true},
		{name: "grandchild", ancestor: 10, node: 12, want: true},
		{name: "deep descendant", ancestor: 10, node: 16, want: true},
		{name: "itself", ancestor: 10, node: 10, want: false},
		{name: "parent is not a descendant", ancestor: 11, node: 10, want: false},
		{name: "sibling", ancestor: 11, node: 14, want: false},
		{name: "cousin", ancestor: 11, node: 15, want: false},
		{name: "other root", ancestor: 10, node: 21, want: false},
		{name: "leaf has no descendants", ancestor: 12, node: 10, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tree.IsDescendant(forest.MustFind(t, tt.ancestor), forest.MustFind(t, tt.node))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDescendant_ComparesByID(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureChain).Build()

	detached := &model.Category{ID: 3, Name: "copy of C"}

	assert.True(t, tree.IsDescendant(forest.MustFind(t, 1), detached))
}

func TestIsDescendant_LeafAlwaysFalse(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	for _, leafID := range []int{12, 13, 16, 21, 22, 30} {
		leaf := forest.MustFind(t, leafID)
		for _, e := range tree.Flatten(forest) {
			assert.False(t, tree.IsDescendant(leaf, e.Category), "leaf %d vs %d", leafID, e.Category.ID)
		}
	}
}

func TestIsDescendant_Nil(t *testing.T) {
	assert.False(t, tree.IsDescendant(nil, &model.Category{ID: 1}))
	assert.False(t, tree.IsDescendant(&model.Category{ID: 1}, nil))
}

func TestAvailableParents_ScenarioEditingB(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureChain).Build()

	got := tree.AvailableParents(forest, forest.MustFind(t, 2))

	assert.Equal(t, []row{{"A", 0}}, rows(got))
}

func TestAvailableParents_CreateModeEqualsFlatten(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	assert.Equal(t, tree.Flatten(forest), tree.AvailableParents(forest, nil))
}

func TestAvailableParents_NeverOffersSelfOrDescendants(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	for _, e := range tree.Flatten(forest) {
		editing := e.Category
		for _, candidate := range tree.AvailableParents(forest, editing) {
			assert.NotEqual(t, editing.ID, candidate.Category.ID)
			assert.False(t, tree.IsDescendant(editing, candidate.Category),
				"%s offered as parent of its ancestor %s", candidate.Category.Name, editing.Name)
		}
	}
}

func TestAvailableParents_KeepsAncestorsAndSiblings(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	got := tree.AvailableParents(forest, forest.MustFind(t, 14))

	assert.Equal(t, []int{10, 11, 12, 13, 20, 21, 22, 30}, entryIDs(got))
}

func TestAvailableParents_DetachedEditingCopy(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureChain).Build()

	// A copy without children, as the edit form may hold.
	editing := &model.Category{ID: 2, Name: "B"}

	got := tree.AvailableParents(forest, editing)

	assert.Equal(t, []int{1}, entryIDs(got))
}

func TestAvailableParents_EmptyForest(t *testing.T) {
	assert.Empty(t, tree.AvailableParents(nil, nil))
	assert.Empty(t, tree.AvailableParents(nil, &model.Category{ID: 4}))
}

func TestAvailableParents_DoesNotMutateForest(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()
	before := tree.Flatten(forest)

	_ = tree.AvailableParents(forest, forest.MustFind(t, 10))

	assert.Equal(t, before, tree.Flatten(forest))
}

func TestFind(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	found := tree.Find(forest, 16)
	require.NotNil(t, found)
	assert.Equal(t, "Accesorios", found.Name)

	assert.Nil(t, tree.Find(forest, 999))
}

func TestPath(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureStore).Build()

	got := tree.Path(forest, 16)

	assert.Equal(t, []model.CategoryRef{
		{ID: 10, Name: "Electrónica", Level: 0},
		{ID: 14, Name: "Telefonía", Level: 1},
		{ID: 15, Name: "Smartphones", Level: 2},
		{ID: 16, Name: "Accesorios", Level: 3},
	}, got)
	assert.Nil(t, tree.Path(forest, 999))
	assert.Equal(t, []model.CategoryRef{{ID: 30, Name: "Oficina", Level: 0}}, tree.Path(forest, 30))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, " ", tree.Indent(0))
	assert.Equal(t, "—— ", tree.Indent(2))
	assert.Equal(t, " ", tree.Indent(-1))
}

func TestAuditAndNormalize(t *testing.T) {
	forest := categories.NewBuilder(t).WithFixture(categories.FixtureChain).Build()
	forest.MustFind(t, 3).Level = 5

	mismatches := tree.AuditLevels(forest)
	require.Len(t, mismatches, 1)
	assert.Equal(t, tree.LevelMismatch{ID: 3, Name: "C", Stored: 5, Computed: 2}, mismatches[0])

	assert.Equal(t, 1, tree.Normalize(forest))
	assert.Equal(t, 2, forest.MustFind(t, 3).Level)
	assert.Empty(t, tree.AuditLevels(forest))
	assert.Equal(t, 0, tree.Normalize(forest))
}
