package decal

import "fmt"

// CameraEvent is a stage of a camera's pipeline where buffers can run.
type CameraEvent uint8

const (
	BeforeDepthTexture CameraEvent = iota
	AfterDepthTexture
	BeforeForwardOpaque
	AfterForwardOpaque
	BeforeSkybox
	AfterSkybox
	BeforeForwardAlpha
	AfterForwardAlpha
	BeforeImageEffects
	AfterImageEffects
	AfterEverything

	cameraEventCount
)

var cameraEventNames = [...]string{
	BeforeDepthTexture:  "before_depth_texture",
	AfterDepthTexture:   "after_depth_texture",
	BeforeForwardOpaque: "before_forward_opaque",
	AfterForwardOpaque:  "after_forward_opaque",
	BeforeSkybox:        "before_skybox",
	AfterSkybox:         "after_skybox",
	BeforeForwardAlpha:  "before_forward_alpha",
	AfterForwardAlpha:   "after_forward_alpha",
	BeforeImageEffects:  "before_image_effects",
	AfterImageEffects:   "after_image_effects",
	AfterEverything:     "after_everything",
}

// CameraEvents returns every event in pipeline order.
func CameraEvents() []CameraEvent {
	out := make([]CameraEvent, 0, cameraEventCount)
	for ev := CameraEvent(0); ev < cameraEventCount; ev++ {
		out = append(out, ev)
	}
	return out
}

func (e CameraEvent) String() string {
	if e < cameraEventCount {
		return cameraEventNames[e]
	}
	return fmt.Sprintf("camera_event(%d)", uint8(e))
}

// ParseCameraEvent parses a snake_case event name.
func ParseCameraEvent(s string) (CameraEvent, error) {
	for ev, name := range cameraEventNames {
		if name == s {
			return CameraEvent(ev), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCameraEvent, s)
}

func (e CameraEvent) MarshalText() ([]byte, error) {
	if e >= cameraEventCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCameraEvent, uint8(e))
	}
	return []byte(cameraEventNames[e]), nil
}

func (e *CameraEvent) UnmarshalText(text []byte) error {
	ev, err := ParseCameraEvent(string(text))
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// Camera is a host view that runs attached buffers at pipeline events.
type Camera interface {
	Name() string
	CommandBuffers(ev CameraEvent) []*CommandBuffer
	AddCommandBuffer(ev CameraEvent, buf *CommandBuffer)
	RemoveCommandBuffer(ev CameraEvent, buf *CommandBuffer)
}

// CameraBinding attaches the decal buffers to Camera at Event.
type CameraBinding struct {
	Camera        Camera
	Event         CameraEvent
	RenderStatic  bool
	RenderDynamic bool
}
