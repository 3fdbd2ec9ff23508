package aspen

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing texture, font or shader file.
	ErrNotFound = errors.New("aspen: resource not found")
	// ErrLength reports a slice argument of the wrong length.
	ErrLength = errors.New("aspen: wrong number of elements")
	// ErrBufferTooSmall reports pixel data shorter than width*height*bpp.
	ErrBufferTooSmall = errors.New("aspen: buffer too small")
	// ErrTypeMismatch reports a uniform set with the wrong variant.
	ErrTypeMismatch = errors.New("aspen: uniform type mismatch")
	// ErrUnknownUniform reports a uniform name the shader does not declare.
	ErrUnknownUniform = errors.New("aspen: unknown uniform")
	// ErrIndex reports an attachment or mip index out of range.
	ErrIndex = errors.New("aspen: index out of range")
	// ErrStaleHandle reports a handle whose resource has been destroyed.
	ErrStaleHandle = errors.New("aspen: stale resource handle")
	// ErrDestroyed reports use of a destroyed texture, target or shader.
	ErrDestroyed = errors.New("aspen: resource destroyed")
	// ErrInvalidZoom reports a zoom that is not strictly positive.
	ErrInvalidZoom = errors.New("aspen: zoom must be greater than zero")
	// ErrMipLevel reports a mip level the texture does not have.
	ErrMipLevel = errors.New("aspen: mip level out of range")
	// ErrFormat reports an unknown pixel format.
	ErrFormat = errors.New("aspen: unsupported pixel format")
	// ErrNoContext reports that the device has no usable graphics context.
	// It is fatal for the renderer that observes it.
	ErrNoContext = errors.New("aspen: no active graphics context")
	// ErrRendererFailed is returned by every renderer call after a fatal
	// device error.
	ErrRendererFailed = errors.New("aspen: renderer has failed")
)

// UniformTypeError is returned when a uniform is set with a value whose
// variant differs from the declared type. It matches ErrTypeMismatch.
type UniformTypeError struct {
	Name string
	Want UniformKind
	Got  UniformKind
}

func (e *UniformTypeError) Error() string {
	return fmt.Sprintf("aspen: uniform %q is %s, cannot set %s", e.Name, e.Want, e.Got)
}

// Is lets errors.Is(err, ErrTypeMismatch) match.
func (e *UniformTypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// lengthError wraps ErrLength with the offending count.
func lengthError(what string, want, got int) error {
	return fmt.Errorf("%w: %s needs %d values, got %d", ErrLength, what, want, got)
}
