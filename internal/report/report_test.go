package report

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultMerge(t *testing.T) {
	var total Result
	a := Result{Lights: 1, Meshes: []string{"Cube_Mat"}}
	a.Warn(CategoryTexture, "Wood", 5, "Texture '%s' dropped", "Grain")
	b := Result{Groups: 2, Assets: []FileStat{{Name: "Cube.xml", Size: 10}}}

	total.Merge(a)
	total.Merge(b)

	assert.Equal(t, 1, total.Lights)
	assert.Equal(t, 2, total.Groups)
	assert.Equal(t, []string{"Cube_Mat"}, total.Meshes)
	require.Len(t, total.Warnings, 1)
	assert.Equal(t, Warning{Message: "Texture 'Grain' dropped", Category: CategoryTexture, Issue: 5, Object: "Wood"}, total.Warnings[0])
	assert.Len(t, total.Assets, 1)
}

func TestReportRoundTrip(t *testing.T) {
	res := Result{Views: 1}
	res.Warn(CategoryCamera, "", 0, "Scene 'S' has no active camera set.")

	r := New("test", res)
	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)
	assert.NotNil(t, r.Textures)

	path := filepath.Join(t.TempDir(), "xml3d-info.json")
	require.NoError(t, r.WriteFile(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, 1, back.Views)
	assert.Equal(t, r.Warnings, back.Warnings)
	assert.Empty(t, back.Textures)
}
