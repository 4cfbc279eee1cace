package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
	if !m.IsIdentity(0) {
		t.Error("IsIdentity(Identity()) should be true")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(1, 2, 3)
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(5, 10, 15)

	if m[12] != 5 || m[13] != 10 || m[14] != 15 {
		t.Errorf("Translate: got (%f, %f, %f), want (5, 10, 15)", m[12], m[13], m[14])
	}
	if got := m.Translation(); got != (Vec3{5, 10, 15}) {
		t.Errorf("Translation() = %v", got)
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate(10, 20, 30)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{11, 22, 33}
	if result != expected {
		t.Errorf("TransformPoint: got %v, want %v", result, expected)
	}
}

func TestTransformPointScale(t *testing.T) {
	m := Scale(2, 2, 2)
	result := m.TransformPoint(Vec3{1, 2, 3})

	expected := Vec3{2, 4, 6}
	if result != expected {
		t.Errorf("TransformPoint with scale: got %v, want %v", result, expected)
	}
}

func TestInverse(t *testing.T) {
	m := Compose(Vec3{1, -2, 3}, QuatFromAxisAngle(Vec3{0, 0, 1}, 0.7), Vec3{2, 2, 2})
	inv, ok := m.Inverse()
	if !ok {
		t.Fatal("Inverse reported singular matrix")
	}
	if !m.Mul(inv).IsIdentity(1e-9) {
		t.Errorf("M * inverse(M) should be identity, got %v", m.Mul(inv))
	}
}

func TestInverseSingular(t *testing.T) {
	var zero Mat4
	inv, ok := zero.Inverse()
	if ok {
		t.Error("zero matrix should not be invertible")
	}
	if !inv.IsIdentity(0) {
		t.Error("singular inverse should fall back to identity")
	}
}

func TestDecompose(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{0, 1, 0}, math.Pi/3)
	m := Compose(Vec3{1, 2, 3}, rot, Vec3{1, 2, 3})

	loc, q, s := m.Decompose()
	if !NearlyEqual(loc.X, 1, 1e-9) || !NearlyEqual(loc.Y, 2, 1e-9) || !NearlyEqual(loc.Z, 3, 1e-9) {
		t.Errorf("loc = %v", loc)
	}
	if !NearlyEqual(s.X, 1, 1e-9) || !NearlyEqual(s.Y, 2, 1e-9) || !NearlyEqual(s.Z, 3, 1e-9) {
		t.Errorf("scale = %v", s)
	}
	if math.Abs(math.Abs(q.Dot(rot))-1) > 1e-9 {
		t.Errorf("rotation = %v, want %v", q, rot)
	}
}

func TestCSSMatrix3D(t *testing.T) {
	got := Translate(1, 2, 3).CSSMatrix3D()
	want := "matrix3d(1.000000,0.000000,0.000000,0.000000," +
		"0.000000,1.000000,0.000000,0.000000," +
		"0.000000,0.000000,1.000000,0.000000," +
		"1.000000,2.000000,3.000000,1.000000)"
	if got != want {
		t.Errorf("CSSMatrix3D() = %s, want %s", got, want)
	}
}

func TestCSSMatrix3DNoNegativeZero(t *testing.T) {
	m := Identity()
	m[1] = -1e-9
	got := m.CSSMatrix3D()
	want := Identity().CSSMatrix3D()
	if got != want {
		t.Errorf("CSSMatrix3D() = %s, want %s", got, want)
	}
}

func TestTranspose(t *testing.T) {
	m := Translate(4, 5, 6).Transpose()
	if m[3] != 4 || m[7] != 5 || m[11] != 6 {
		t.Errorf("Transpose: got %v", m)
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(math.Pi/4, 1.0, 0.1, 100.0)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}
