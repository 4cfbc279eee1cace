package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/xml3d-exporter/internal/config"
	"github.com/Faultbox/xml3d-exporter/internal/material"
	"github.com/Faultbox/xml3d-exporter/pkg/math"
	"github.com/Faultbox/xml3d-exporter/pkg/scene"
)

func TestFinalizeWritesLibraries(t *testing.T) {
	dir := t.TempDir()
	sc := &scene.Scene{Name: "Scene", FPS: 30}
	s := New(config.Default(), sc, nil, dir)

	s.Shared.Add(material.Default())
	skel := &scene.Armature{Name: "Rig", Bones: []*scene.Bone{{Name: "b", MatrixLocal: math.Identity()}}}
	s.Armatures.Add(&scene.Object{Name: "Rig", Armature: skel, MatrixWorld: math.Identity()})

	res, err := s.Finalize()
	require.NoError(t, err)
	require.Len(t, res.Materials, 1)
	require.Len(t, res.Armatures, 1)
	assert.FileExists(t, filepath.Join(dir, AssetDir, MaterialLibrary))
	assert.FileExists(t, filepath.Join(dir, AssetDir, ArmatureLibrary))

	again, err := s.Finalize()
	require.NoError(t, err)
	assert.Empty(t, again.Materials)
}

func TestFinalizeEmptySession(t *testing.T) {
	dir := t.TempDir()
	s := New(config.Default(), &scene.Scene{Name: "Empty"}, nil, dir)

	res, err := s.Finalize()
	require.NoError(t, err)
	assert.Empty(t, res.Materials)
	assert.NoDirExists(t, filepath.Join(dir, AssetDir))
}

func TestAssetPath(t *testing.T) {
	dir := t.TempDir()
	s := New(config.Default(), &scene.Scene{Name: "S"}, nil, dir)

	path, err := s.AssetPath("Layer-0.xml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, AssetDir, "Layer-0.xml"), path)
	assert.DirExists(t, filepath.Join(dir, AssetDir))
}
