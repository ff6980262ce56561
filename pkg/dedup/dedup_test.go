package dedup_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"github.com/agentstation/mapmerge/pkg/dataset"
	"github.com/agentstation/mapmerge/pkg/dedup"
	"github.com/agentstation/mapmerge/pkg/errors"
	"github.com/agentstation/mapmerge/pkg/logging"
)

func mustParse(t *testing.T, source, doc string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Parse(source, []byte(doc))
	require.NoError(t, err)
	return ds
}

// keys flattens items into "type:name/id" strings in order.
func keys(items *dataset.Items) []string {
	var out []string
	for _, itemType := range items.Types() {
		for _, e := range items.Get(itemType) {
			out = append(out, fmt.Sprintf("%s:%s/%s", itemType, e.Name, dataset.FormatID(e.ID)))
		}
	}
	return out
}

func run(t *testing.T, inputs ...*dataset.Dataset) *dedup.Result {
	t.Helper()
	d, err := dedup.New()
	require.NoError(t, err)
	result, err := d.Run(context.Background(), inputs)
	require.NoError(t, err)
	return result
}

func TestExactDuplicate(t *testing.T) {
	a := mustParse(t, "a.json", `{"format_version": "1", "items": {"tools": [{"name": "axe", "custom_model_data": 100}]}}`)
	b := mustParse(t, "b.json", `{"format_version": "1", "items": {"tools": [{"name": "axe", "custom_model_data": 100}]}}`)

	result := run(t, a, b)

	assert.Empty(t, keys(result.Cleaned[0].Items))
	assert.Empty(t, keys(result.Cleaned[1].Items))
	assert.Equal(t, []string{"tools:axe/100"}, keys(result.Duplicates.Items))
	assert.Empty(t, keys(result.Merged.Items))
	assert.Equal(t, []dataset.Key{{Name: "axe", ID: 100}}, result.Classification.ExactKeys())
	assert.Empty(t, result.Classification.Names())
	assert.Empty(t, result.Classification.IDs())
}

func TestNameConflict(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"tools": [{"name": "axe", "custom_model_data": 100}, {"name": "pick", "custom_model_data": 1}]}}`)
	b := mustParse(t, "b.json", `{"items": {"tools": [{"name": "axe", "custom_model_data": 200}]}}`)

	result := run(t, a, b)

	assert.Equal(t, []string{"tools:pick/1"}, keys(result.Cleaned[0].Items))
	assert.Empty(t, keys(result.Cleaned[1].Items))
	assert.Empty(t, keys(result.Duplicates.Items))
	assert.Equal(t, []string{"axe"}, result.Classification.Names())
	assert.True(t, result.Classification.HasNameConflict("axe"))
}

func TestIDConflict(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"tools": [{"name": "axe", "custom_model_data": 100}]}}`)
	b := mustParse(t, "b.json", `{"items": {"tools": [{"name": "hatchet", "custom_model_data": 100}, {"name": "saw", "custom_model_data": 5}]}}`)

	result := run(t, a, b)

	assert.Empty(t, keys(result.Cleaned[0].Items))
	assert.Equal(t, []string{"tools:saw/5"}, keys(result.Cleaned[1].Items))
	assert.Empty(t, keys(result.Duplicates.Items))
	assert.Equal(t, []float64{100}, result.Classification.IDs())
}

func TestUnsharedItemTypeSurvives(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"food": [{"name": "bread", "custom_model_data": 1, "hunger": 5}]}}`)
	b := mustParse(t, "b.json", `{"items": {"tools": [{"name": "axe", "custom_model_data": 2}]}}`)

	result := run(t, a, b)

	assert.True(t, result.Classification.Empty())
	assert.Equal(t, []string{"food:bread/1"}, keys(result.Cleaned[0].Items))
	assert.Equal(t, []string{"food:bread/1", "tools:axe/2"}, keys(result.Merged.Items))
	assert.JSONEq(t, `{"name": "bread", "custom_model_data": 1, "hunger": 5}`,
		string(result.Merged.Items.Get("food")[0].Raw))
}

func TestConflictsApplyAcrossItemTypes(t *testing.T) {
	// axe conflicts inside "tools"; the unrelated "weapons" axe in a is removed too.
	a := mustParse(t, "a.json", `{"items": {
		"tools": [{"name": "axe", "custom_model_data": 1}],
		"weapons": [{"name": "axe", "custom_model_data": 9}]
	}}`)
	b := mustParse(t, "b.json", `{"items": {"tools": [{"name": "axe", "custom_model_data": 2}]}}`)

	result := run(t, a, b)

	assert.Empty(t, keys(result.Cleaned[0].Items))
	assert.Equal(t, []string{"tools", "weapons"}, a.Items.Types())
}

func TestSameItemTypeOnlyComparison(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"tools": [{"name": "axe", "custom_model_data": 1}]}}`)
	b := mustParse(t, "b.json", `{"items": {"weapons": [{"name": "axe", "custom_model_data": 2}]}}`)

	result := run(t, a, b)

	assert.True(t, result.Classification.Empty())
	assert.Equal(t, []string{"tools:axe/1", "weapons:axe/2"}, keys(result.Merged.Items))
}

func TestRulePriority(t *testing.T) {
	// The same pair cannot be both an exact duplicate and a name conflict.
	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}]}}`)
	b := mustParse(t, "b.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}, {"name": "y", "custom_model_data": 2}]}}`)

	cls, err := dedup.Classify([]*dataset.Dataset{a, b})
	require.NoError(t, err)

	assert.Equal(t, []dataset.Key{{Name: "x", ID: 1}}, cls.ExactKeys())
	assert.Empty(t, cls.Names())
	assert.Empty(t, cls.IDs())
	assert.Equal(t, 2, cls.Comparisons())
}

func TestWithinDatasetDuplicatesAreNotConflicts(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}, {"name": "x", "custom_model_data": 2}]}}`)
	b := mustParse(t, "b.json", `{"items": {"t": [{"name": "z", "custom_model_data": 3}]}}`)

	result := run(t, a, b)

	assert.True(t, result.Classification.Empty())
	assert.Equal(t, []string{"t:x/1", "t:x/2"}, keys(result.Cleaned[0].Items))
}

func TestThreeDatasetsGlobalClassification(t *testing.T) {
	// bow/12 in c conflicts by name, so no bow survives anywhere.
	a := mustParse(t, "a.json", `{"items": {"weapons": [{"name": "bow", "custom_model_data": 10}, {"name": "club", "custom_model_data": 11}]}}`)
	b := mustParse(t, "b.json", `{"items": {"weapons": [{"name": "bow", "custom_model_data": 10}]}}`)
	c := mustParse(t, "c.json", `{"items": {"weapons": [{"name": "bow", "custom_model_data": 12}, {"name": "club", "custom_model_data": 11}]}}`)

	result := run(t, a, b, c)

	cls := result.Classification
	assert.Equal(t, []dataset.Key{{Name: "bow", ID: 10}, {Name: "club", ID: 11}}, cls.ExactKeys())
	assert.Equal(t, []string{"bow"}, cls.Names())

	for i := range result.Cleaned {
		assert.Empty(t, keys(result.Cleaned[i].Items), "cleaned %d", i)
	}
	assert.Equal(t, []string{"weapons:bow/10", "weapons:club/11"}, keys(result.Duplicates.Items))
}

func TestDuplicatesFirstSeenIsAuthoritative(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1, "src": "a"}]}}`)
	b := mustParse(t, "b.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1, "src": "b"}]}}`)
	c := mustParse(t, "c.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1, "src": "c"}]}}`)

	result := run(t, a, b, c)

	dups := result.Duplicates.Items.Get("t")
	require.Len(t, dups, 1)
	assert.JSONEq(t, `{"name": "x", "custom_model_data": 1, "src": "a"}`, string(dups[0].Raw))
	assert.Equal(t, []dataset.Key{{Name: "x", ID: 1}}, result.Classification.ExactKeys())
}

func TestMergeOrder(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "a1", "custom_model_data": 1}, {"name": "a2", "custom_model_data": 2}], "u": [{"name": "a3", "custom_model_data": 3}]}}`)
	b := mustParse(t, "b.json", `{"items": {"u": [{"name": "b1", "custom_model_data": 4}], "t": [{"name": "b2", "custom_model_data": 5}]}}`)

	result := run(t, a, b)

	want := []string{"t:a1/1", "t:a2/2", "t:b2/5", "u:a3/3", "u:b1/4"}
	if diff := cmp.Diff(want, keys(result.Merged.Items)); diff != "" {
		t.Errorf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, keys(dedup.Merge(result.Cleaned[0].Items, result.Cleaned[1].Items)), keys(result.Merged.Items))
	assert.Equal(t, "1", result.Merged.FormatVersion)
	assert.Equal(t, "1", result.Duplicates.FormatVersion)
}

func TestInputsAreNotMutated(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}]}}`)
	b := mustParse(t, "b.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}]}}`)

	result := run(t, a, b)

	assert.Equal(t, 1, a.Items.Count())
	assert.Equal(t, 1, b.Items.Count())
	assert.Equal(t, 1, result.Removed(0))
}

func TestIdempotence(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}, {"name": "keep", "custom_model_data": 7}]}}`)
	b := mustParse(t, "b.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}, {"name": "other", "custom_model_data": 8}]}}`)

	first := run(t, a, b)
	second := run(t, first.Cleaned...)

	assert.True(t, second.Classification.Empty())
	assert.Empty(t, keys(second.Duplicates.Items))
	for i := range first.Cleaned {
		before, err := dataset.Marshal(first.Cleaned[i])
		require.NoError(t, err)
		after, err := dataset.Marshal(second.Cleaned[i])
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	}
	assert.Equal(t, keys(first.Merged.Items), keys(second.Merged.Items))
}

func TestClassifyRequiresTwoDatasets(t *testing.T) {
	a := mustParse(t, "a.json", `{"items": {}}`)

	_, err := dedup.Classify([]*dataset.Dataset{a})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	d, err := dedup.New()
	require.NoError(t, err)
	_, err = d.Run(context.Background(), nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestRunLogsAndTimes(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	ticks := []time.Time{time.Unix(0, 0), time.Unix(2, 0)}
	d, err := dedup.New(dedup.WithClock(func() time.Time {
		now := ticks[0]
		ticks = ticks[1:]
		return now
	}))
	require.NoError(t, err)

	a := mustParse(t, "a.json", `{"items": {"t": [{"name": "x", "custom_model_data": 1}]}}`)
	b := mustParse(t, "b.json", `{"items": {"t": [{"name": "y", "custom_model_data": 1}]}}`)

	result, err := d.Run(ctx, []*dataset.Dataset{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, result.Duration)

	tl.AssertContains(t, "Classified conflicts")
	tl.AssertContains(t, `"id_conflicts":1`)
	tl.AssertContains(t, `"file":"a.json"`)
	tl.AssertContains(t, `"operation":"classify"`)
	tl.AssertContains(t, `"operation":"filter"`)

	_, err = dedup.New(dedup.WithClock(nil))
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := mustParse(t, "a.json", `{"items": {}}`)
	b := mustParse(t, "b.json", `{"items": {}}`)

	d, err := dedup.New()
	require.NoError(t, err)
	_, err = d.Run(ctx, []*dataset.Dataset{a, b})
	assert.True(t, errors.IsCanceled(err))
}

func TestPlan(t *testing.T) {
	p := dedup.NewPlan("out", []string{"data/a.json", "/abs/b.mapping.json", "noext", "other/a.json"})

	assert.Equal(t, []string{
		filepath.Join("out", "a_clean.json"),
		filepath.Join("out", "b.mapping_clean.json"),
		filepath.Join("out", "noext_clean.json"),
		filepath.Join("out", "a_clean.json"),
	}, p.Cleaned)
	assert.Equal(t, filepath.Join("out", "merged.json"), p.Merged)
	assert.Equal(t, filepath.Join("out", "duplicates.json"), p.Duplicates)
	assert.Equal(t, []string{filepath.Join("out", "a_clean.json")}, p.Collisions())

	assert.Equal(t, ".", dedup.NewPlan("", nil).Dir)
	assert.Equal(t, "mem://localhost/out/merged.json", dedup.NewPlan("mem://localhost/out/", nil).Merged)
	assert.Equal(t, ".hidden_clean.json", dedup.CleanName(".hidden"))
}

func TestPlanSave(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	dir := t.TempDir()

	a := mustParse(t, filepath.Join(dir, "a.json"), `{"format_version": "1", "items": {"t": [{"name": "x", "custom_model_data": 1}, {"name": "ä", "custom_model_data": 2}]}}`)
	b := mustParse(t, filepath.Join(dir, "b.json"), `{"format_version": "1", "items": {"t": [{"name": "x", "custom_model_data": 1}]}}`)
	result := run(t, a, b)

	outDir := filepath.Join(dir, "out")
	plan := dedup.NewPlan(outDir, []string{a.Source, b.Source})
	require.NoError(t, plan.Save(ctx, afs.New(), result))

	for _, loc := range append(plan.Cleaned, plan.Merged, plan.Duplicates) {
		_, err := os.Stat(loc)
		assert.NoError(t, err, loc)
	}

	merged, err := os.ReadFile(plan.Merged)
	require.NoError(t, err)
	assert.Equal(t, `{
  "format_version": "1",
  "items": {
    "t": [
      {
        "name": "ä",
        "custom_model_data": 2
      }
    ]
  }
}`, string(merged))

	cleanB, err := os.ReadFile(plan.Cleaned[1])
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"format_version\": \"1\",\n  \"items\": {}\n}", string(cleanB))

	tl.AssertContains(t, `"operation":"save"`)
	tl.AssertContains(t, `"file":"`+plan.Merged+`"`)

	bad := dedup.Plan{Dir: outDir}
	assert.Error(t, bad.Save(ctx, afs.New(), result))
}
