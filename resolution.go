package aspen

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Viewport is a rectangle in target pixel space with a top-left origin. It
// controls where the view is drawn, not what is drawn.
type Viewport struct {
	X, Y, W, H float32
}

// Right returns X + W.
func (v Viewport) Right() float32 { return v.X + v.W }

// Bottom returns Y + H.
func (v Viewport) Bottom() float32 { return v.Y + v.H }

// AspectRatio returns W/H, or 0 for a zero-height viewport.
func (v Viewport) AspectRatio() float32 {
	if v.H == 0 {
		return 0
	}
	return v.W / v.H
}

// Contains reports whether the pixel (x, y) lies inside the viewport.
func (v Viewport) Contains(x, y float32) bool {
	return x >= v.X && x < v.Right() && y >= v.Y && y < v.Bottom()
}

// ResolutionPolicy maps a fixed design resolution onto a window.
type ResolutionPolicy uint8

const (
	// PolicyNone draws at 1:1 pixels over the whole window.
	PolicyNone ResolutionPolicy = iota
	// PolicyMaintain scales uniformly and letterboxes.
	PolicyMaintain
	// PolicyCenter centres the base resolution unscaled.
	PolicyCenter
	// PolicyScale stretches the base resolution over the whole window.
	PolicyScale
)

var policyNames = [...]string{"NONE", "MAINTAIN", "CENTER", "SCALE"}

func (p ResolutionPolicy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return fmt.Sprintf("ResolutionPolicy(%d)", uint8(p))
}

// ParseResolutionPolicy accepts the names printed by String, case-sensitive.
func ParseResolutionPolicy(s string) (ResolutionPolicy, error) {
	for i, n := range policyNames {
		if n == s {
			return ResolutionPolicy(i), nil
		}
	}
	return PolicyNone, fmt.Errorf("aspen: unknown resolution policy %q", s)
}

// MarshalYAML encodes the policy by name.
func (p ResolutionPolicy) MarshalYAML() (any, error) {
	return p.String(), nil
}

// UnmarshalYAML decodes a policy name.
func (p *ResolutionPolicy) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := ParseResolutionPolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ComputeViewport returns the pixel rectangle the base resolution occupies
// inside a window of the given size.
func ComputeViewport(policy ResolutionPolicy, base, window Size) Viewport {
	bw, bh := float32(base.W), float32(base.H)
	ww, wh := float32(window.W), float32(window.H)
	full := Viewport{X: 0, Y: 0, W: ww, H: wh}

	switch policy {
	case PolicyMaintain:
		if bw <= 0 || bh <= 0 {
			return full
		}
		scale := min(ww/bw, wh/bh)
		w, h := bw*scale, bh*scale
		return Viewport{X: (ww - w) / 2, Y: (wh - h) / 2, W: w, H: h}
	case PolicyCenter:
		return Viewport{X: (ww - bw) / 2, Y: (wh - bh) / 2, W: bw, H: bh}
	default:
		return full
	}
}

// ComputeView returns the world rectangle shown under policy. PolicyNone
// maps world units 1:1 onto window pixels; the others always show the base
// resolution.
func ComputeView(policy ResolutionPolicy, base, window Size) CameraView {
	if policy == PolicyNone {
		return CameraView{MinX: 0, MaxX: float32(window.W), MinY: 0, MaxY: float32(window.H)}
	}
	return CameraView{MinX: 0, MaxX: float32(base.W), MinY: 0, MaxY: float32(base.H)}
}

// Resolution is a read-only snapshot of how the design resolution maps onto
// the current target. The renderer recomputes it whenever any input changes.
type Resolution struct {
	Base           Size
	Window         Size
	Desktop        Size
	DesktopRefresh int
	Policy         ResolutionPolicy
	Viewport       Viewport
	View           CameraView
}

// BaseAspectRatio returns the aspect ratio of the design resolution.
func (r Resolution) BaseAspectRatio() float32 { return r.Base.AspectRatio() }

// WindowAspectRatio returns the aspect ratio of the window.
func (r Resolution) WindowAspectRatio() float32 { return r.Window.AspectRatio() }

// DesktopAspectRatio returns the aspect ratio of the desktop.
func (r Resolution) DesktopAspectRatio() float32 { return r.Desktop.AspectRatio() }

// computeResolution builds a snapshot for the given inputs.
func computeResolution(policy ResolutionPolicy, base, window, desktop Size, refresh int) Resolution {
	return Resolution{
		Base:           base,
		Window:         window,
		Desktop:        desktop,
		DesktopRefresh: refresh,
		Policy:         policy,
		Viewport:       ComputeViewport(policy, base, window),
		View:           ComputeView(policy, base, window),
	}
}
