package math

import (
	"math"
	"testing"
)

func TestEulerRotation_CompositionOrder(t *testing.T) {
	// Rz*Ry*Rx applied to x-hat with a 90 degree z rotation only
	m := EulerRotation(0, 0, math.Pi/2)
	got := m.Apply(NewVec3(1, 0, 0))
	want := NewVec3(0, 1, 0)

	if got.Subtract(want).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEulerRotation_OrderMatters(t *testing.T) {
	// With rx and rz both 90 degrees, Rz*Ry*Rx maps y-hat to -y-hat only
	// if the x rotation is applied first.
	m := EulerRotation(math.Pi/2, 0, math.Pi/2)
	got := m.Apply(NewVec3(0, 1, 0))

	// y-hat -> Rx -> z-hat -> Rz -> z-hat
	expected := NewVec3(0, 0, 1)
	if got.Subtract(expected).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestMat3_TransposeIsInverseForRotations(t *testing.T) {
	m := EulerRotation(0.3, -0.7, 1.1)
	prod := m.Mul(m.Transpose())
	id := Identity3()

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(prod[i][j]-id[i][j]) > 1e-12 {
				t.Errorf("R*R^T differs from identity at (%d,%d): %g", i, j, prod[i][j])
			}
		}
	}
}

func TestMat3_Determinant(t *testing.T) {
	m := EulerRotation(0.2, 0.4, -0.6)
	if math.Abs(m.Determinant()-1.0) > 1e-12 {
		t.Errorf("Rotation determinant should be 1, got %g", m.Determinant())
	}
}

func TestVec3_CrossFollowsRightHandRule(t *testing.T) {
	got := NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0))
	want := NewVec3(0, 0, 1)
	if got.Subtract(want).Length() > 1e-12 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMat3_GonumRoundTrip(t *testing.T) {
	m := EulerRotation(0.1, 0.2, 0.3)
	back := Mat3FromDense(m.ToDense())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if m[i][j] != back[i][j] {
				t.Errorf("Round trip differs at (%d,%d)", i, j)
			}
		}
	}
}
