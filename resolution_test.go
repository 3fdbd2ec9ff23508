package aspen

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func assertViewport(t *testing.T, got, want Viewport) {
	t.Helper()
	if !approxEqual(got.X, want.X, 1e-3) || !approxEqual(got.Y, want.Y, 1e-3) ||
		!approxEqual(got.W, want.W, 1e-3) || !approxEqual(got.H, want.H, 1e-3) {
		t.Errorf("viewport = %+v, want %+v", got, want)
	}
}

func TestComputeViewportMaintain(t *testing.T) {
	base := Size{W: 800, H: 600}
	tests := []struct {
		name   string
		window Size
		want   Viewport
	}{
		{"exact", Size{W: 800, H: 600}, Viewport{X: 0, Y: 0, W: 800, H: 600}},
		{"pillarbox", Size{W: 1920, H: 1080}, Viewport{X: 240, Y: 0, W: 1440, H: 1080}},
		{"letterbox", Size{W: 800, H: 1000}, Viewport{X: 0, Y: 200, W: 800, H: 600}},
		{"smaller", Size{W: 400, H: 400}, Viewport{X: 0, Y: 50, W: 400, H: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vp := ComputeViewport(PolicyMaintain, base, tt.window)
			assertViewport(t, vp, tt.want)
			if !approxEqual(vp.AspectRatio(), base.AspectRatio(), epsilon) {
				t.Errorf("aspect = %v, want %v", vp.AspectRatio(), base.AspectRatio())
			}
			if vp.X < -1e-3 || vp.Y < -1e-3 || vp.Right() > float32(tt.window.W)+1e-3 || vp.Bottom() > float32(tt.window.H)+1e-3 {
				t.Errorf("viewport %+v escapes window %+v", vp, tt.window)
			}
		})
	}
}

func TestComputeViewportOtherPolicies(t *testing.T) {
	base := Size{W: 800, H: 600}
	window := Size{W: 1000, H: 800}
	tests := []struct {
		policy ResolutionPolicy
		want   Viewport
	}{
		{PolicyNone, Viewport{X: 0, Y: 0, W: 1000, H: 800}},
		{PolicyScale, Viewport{X: 0, Y: 0, W: 1000, H: 800}},
		{PolicyCenter, Viewport{X: 100, Y: 100, W: 800, H: 600}},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			if vp := ComputeViewport(tt.policy, base, window); vp != tt.want {
				t.Errorf("viewport = %+v, want %+v", vp, tt.want)
			}
		})
	}
}

func TestComputeView(t *testing.T) {
	base := Size{W: 800, H: 600}
	window := Size{W: 1000, H: 800}
	if v := ComputeView(PolicyNone, base, window); v != (CameraView{MinX: 0, MaxX: 1000, MinY: 0, MaxY: 800}) {
		t.Errorf("none view = %+v", v)
	}
	for _, p := range []ResolutionPolicy{PolicyMaintain, PolicyCenter, PolicyScale} {
		if v := ComputeView(p, base, window); v != (CameraView{MinX: 0, MaxX: 800, MinY: 0, MaxY: 600}) {
			t.Errorf("%s view = %+v", p, v)
		}
	}
}

func TestComputeViewportDegenerateBase(t *testing.T) {
	vp := ComputeViewport(PolicyMaintain, Size{}, Size{W: 640, H: 480})
	if vp != (Viewport{W: 640, H: 480}) {
		t.Errorf("viewport = %+v, want full window", vp)
	}
}

func TestResolutionPolicyYAML(t *testing.T) {
	var doc struct {
		Policy ResolutionPolicy `yaml:"policy"`
	}
	if err := yaml.Unmarshal([]byte("policy: CENTER\n"), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Policy != PolicyCenter {
		t.Errorf("policy = %v, want CENTER", doc.Policy)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "policy: CENTER\n" {
		t.Errorf("marshal = %q", out)
	}
	if err := yaml.Unmarshal([]byte("policy: STRETCH\n"), &doc); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestComputeResolution(t *testing.T) {
	res := computeResolution(PolicyMaintain, Size{W: 4, H: 3}, Size{W: 16, H: 9}, Size{W: 1920, H: 1080}, 144)
	assertNear(t, "base aspect", res.BaseAspectRatio(), 4.0/3.0)
	assertNear(t, "window aspect", res.WindowAspectRatio(), 16.0/9.0)
	assertNear(t, "desktop aspect", res.DesktopAspectRatio(), 16.0/9.0)
	if res.DesktopRefresh != 144 {
		t.Errorf("refresh = %d", res.DesktopRefresh)
	}
	if res.Viewport.H != 9 {
		t.Errorf("viewport = %+v, want full height", res.Viewport)
	}
}

func TestViewportContains(t *testing.T) {
	vp := Viewport{X: 10, Y: 10, W: 5, H: 5}
	if !vp.Contains(10, 10) || vp.Contains(15, 12) || vp.Contains(9, 12) {
		t.Error("Contains should include the top-left edge and exclude the bottom-right")
	}
	if (Viewport{W: 5}).AspectRatio() != 0 {
		t.Error("zero height aspect should be 0")
	}
}
