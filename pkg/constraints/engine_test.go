package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackforge/stackforge/pkg/matrix"
)

// testMatrix builds a small web-stack matrix exercising every relationship
// kind. Conflicts and discouragements are deliberately declared on one side
// only, so the bidirectional checks are actually covered.
func testMatrix(t *testing.T) *matrix.Matrix {
	t.Helper()

	m, err := matrix.Merge([]matrix.RawSource{
		{
			Source: matrix.SkillSource{Name: matrix.PublicSourceName, Kind: matrix.SourceKindPublic},
			Categories: []matrix.Category{
				{ID: "framework", Name: "Framework", Exclusive: true, Required: true},
				{ID: "database", Name: "Database", Exclusive: true},
				{ID: "data", Name: "Data Layer"},
				{ID: "styling", Name: "Styling"},
				{ID: "infra", Name: "Infrastructure"},
			},
			Skills: []*matrix.Skill{
				{
					ID: "react", Name: "React", Category: "framework",
					ConflictsWith: []matrix.Relation{{SkillID: "vue", Reason: "pick one rendering framework"}},
					Recommends:    []matrix.Relation{{SkillID: "react-query", Reason: "pairs well with React data fetching"}},
					Alternatives:  []string{"vue"},
				},
				{ID: "vue", Name: "Vue", Category: "framework"},
				{
					ID: "tailwind", Name: "Tailwind CSS", Category: "styling",
					Requires: []matrix.RequirementGroup{
						{SkillIDs: []string{"react", "vue"}, NeedsAny: true, Reason: "needs a component framework"},
					},
				},
				{ID: "postgres", Name: "PostgreSQL", Category: "database"},
				{
					ID: "prisma", Name: "Prisma", Category: "data",
					Requires: []matrix.RequirementGroup{
						{SkillIDs: []string{"postgres"}, Reason: "this Prisma setup targets PostgreSQL"},
					},
				},
				{ID: "react-query", Name: "React Query", Category: "data"},
				{
					ID: "zustand", Name: "Zustand", Category: "data",
					ConflictsWith: []matrix.Relation{{SkillID: "react-query", Reason: "overlapping cache ownership"}},
				},
				{
					ID: "redux", Name: "Redux", Category: "data",
					Discourages: []matrix.Relation{{SkillID: "mobx", Reason: "two state stores fight over ownership"}},
				},
				{ID: "mobx", Name: "MobX", Category: "data"},
				{
					ID: "aws-setup", Name: "AWS Setup", Category: "infra",
					ProvidesSetupFor: []string{"s3-storage", "lambda-deploy"},
				},
				{ID: "s3-storage", Name: "S3 Storage", Category: "infra"},
				{ID: "lambda-deploy", Name: "Lambda Deploy", Category: "infra"},
			},
		},
	}, nil)
	require.NoError(t, err)
	return m
}

func TestIsDisabled(t *testing.T) {
	engine := New(testMatrix(t))

	t.Run("conflict declared by target", func(t *testing.T) {
		assert.True(t, engine.IsDisabled("react", []string{"vue"}))
	})

	t.Run("conflict declared by selection", func(t *testing.T) {
		// vue declares nothing; the conflict lives on react's side.
		assert.True(t, engine.IsDisabled("vue", []string{"react"}))
	})

	t.Run("unmet and requirement", func(t *testing.T) {
		assert.True(t, engine.IsDisabled("prisma", nil))
		assert.False(t, engine.IsDisabled("prisma", []string{"postgres"}))
	})

	t.Run("unmet or requirement", func(t *testing.T) {
		assert.True(t, engine.IsDisabled("tailwind", nil))
		assert.False(t, engine.IsDisabled("tailwind", []string{"react"}))
		assert.False(t, engine.IsDisabled("tailwind", []string{"vue"}))
	})

	t.Run("no relation means enabled", func(t *testing.T) {
		assert.False(t, engine.IsDisabled("postgres", []string{"react"}))
	})

	t.Run("aliases resolve before checking", func(t *testing.T) {
		assert.True(t, engine.IsDisabled("Vue", []string{"React"}))
	})

	t.Run("unknown target is not disabled", func(t *testing.T) {
		assert.False(t, engine.IsDisabled("ghost", []string{"react"}))
	})
}

func TestExpertMode(t *testing.T) {
	engine := New(testMatrix(t), WithExpertMode(true))

	t.Run("disablement is bypassed entirely", func(t *testing.T) {
		assert.False(t, engine.IsDisabled("vue", []string{"react"}))
		assert.Empty(t, engine.DisableReason("vue", []string{"react"}))
		assert.False(t, engine.IsDisabled("prisma", nil))
	})

	t.Run("conflicts still discourage", func(t *testing.T) {
		assert.True(t, engine.IsDiscouraged("vue", []string{"react"}))
	})
}

func TestDisableReason(t *testing.T) {
	engine := New(testMatrix(t))

	t.Run("conflict names the conflicting skill", func(t *testing.T) {
		reason := engine.DisableReason("vue", []string{"react"})
		assert.Contains(t, reason, "Conflicts with React")
		assert.Contains(t, reason, "pick one rendering framework")
	})

	t.Run("requirement names the missing skills", func(t *testing.T) {
		reason := engine.DisableReason("prisma", nil)
		assert.Contains(t, reason, "Requires PostgreSQL")
		assert.Contains(t, reason, "targets PostgreSQL")
	})

	t.Run("or requirement joins with or", func(t *testing.T) {
		reason := engine.DisableReason("tailwind", nil)
		assert.Contains(t, reason, "React or Vue")
	})

	t.Run("empty when not disabled", func(t *testing.T) {
		assert.Empty(t, engine.DisableReason("react", nil))
	})
}

func TestIsDiscouraged(t *testing.T) {
	engine := New(testMatrix(t))

	t.Run("discouragement declared by selection", func(t *testing.T) {
		assert.True(t, engine.IsDiscouraged("mobx", []string{"redux"}))
	})

	t.Run("discouragement declared by target", func(t *testing.T) {
		// mobx declares nothing; redux carries the relation.
		assert.True(t, engine.IsDiscouraged("redux", []string{"mobx"}))
	})

	t.Run("conflicts imply discouragement", func(t *testing.T) {
		assert.True(t, engine.IsDiscouraged("vue", []string{"react"}))
	})

	t.Run("unmet requirements discourage", func(t *testing.T) {
		assert.True(t, engine.IsDiscouraged("prisma", nil))
	})

	t.Run("discourage reason takes precedence over requirement", func(t *testing.T) {
		// prisma has an unmet requirement; add a discouragement via redux to
		// check ordering on a skill with both.
		reason := engine.DiscourageReason("mobx", []string{"redux"})
		assert.Contains(t, reason, "Discouraged with Redux")
		assert.Contains(t, reason, "two state stores")
	})

	t.Run("not discouraged without any relation", func(t *testing.T) {
		assert.False(t, engine.IsDiscouraged("postgres", []string{"react"}))
	})
}

func TestIsRecommended(t *testing.T) {
	engine := New(testMatrix(t))

	t.Run("selection recommends target", func(t *testing.T) {
		assert.True(t, engine.IsRecommended("react-query", []string{"react"}))
		reason := engine.RecommendReason("react-query", []string{"react"})
		assert.Contains(t, reason, "Recommended by React")
	})

	t.Run("one-directional", func(t *testing.T) {
		// react recommends react-query, not the reverse.
		assert.False(t, engine.IsRecommended("react", []string{"react-query"}))
	})

	t.Run("nothing recommended by empty selection", func(t *testing.T) {
		assert.False(t, engine.IsRecommended("react-query", nil))
	})
}

func TestDependentSkills(t *testing.T) {
	engine := New(testMatrix(t))

	t.Run("and requirement is always dependent", func(t *testing.T) {
		deps := engine.DependentSkills("postgres", []string{"prisma", "postgres"})
		assert.Equal(t, []string{"prisma"}, deps)
	})

	t.Run("sole satisfier of or group is dependent", func(t *testing.T) {
		deps := engine.DependentSkills("react", []string{"tailwind", "react"})
		assert.Equal(t, []string{"tailwind"}, deps)
	})

	t.Run("or group with a second satisfier is not dependent", func(t *testing.T) {
		deps := engine.DependentSkills("react", []string{"tailwind", "react", "vue"})
		assert.Empty(t, deps)
	})

	t.Run("no dependents for an unrelated skill", func(t *testing.T) {
		assert.Empty(t, engine.DependentSkills("postgres", []string{"react", "tailwind"}))
	})
}
