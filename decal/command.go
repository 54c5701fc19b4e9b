package decal

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/milk9111/forwarddecals/ecs"
)

// CommandType identifies a recorded command.
type CommandType uint8

const (
	CmdGetTemporary     CommandType = iota // Acquire a camera-sized temporary target
	CmdBlit                                // Copy one target into a temporary
	CmdSetGlobalTexture                    // Publish a temporary as a shader input
	CmdSetRenderTarget                     // Bind color and depth destinations
	CmdDrawMesh                            // Draw a mesh with a material
	CmdReleaseTemporary                    // Release a temporary target
)

var commandTypeNames = [...]string{
	CmdGetTemporary:     "GetTemporary",
	CmdBlit:             "Blit",
	CmdSetGlobalTexture: "SetGlobalTexture",
	CmdSetRenderTarget:  "SetRenderTarget",
	CmdDrawMesh:         "DrawMesh",
	CmdReleaseTemporary: "ReleaseTemporary",
}

func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is a single recorded operation.
type Command interface {
	Type() CommandType
}

// TextureID names a temporary render target within one frame.
type TextureID string

// RenderTarget selects a destination or source. The zero value is the
// camera's own color/depth target.
type RenderTarget struct {
	Temporary TextureID
}

// CameraTarget is the camera's current color and depth target.
var CameraTarget = RenderTarget{}

// IsCamera reports whether t is the camera target.
func (t RenderTarget) IsCamera() bool { return t.Temporary == "" }

func (t RenderTarget) String() string {
	if t.IsCamera() {
		return "camera"
	}
	return string(t.Temporary)
}

// GetTemporary acquires a temporary target sized to the camera.
type GetTemporary struct {
	ID TextureID
}

func (GetTemporary) Type() CommandType { return CmdGetTemporary }

// Blit copies Source into the temporary Dest.
type Blit struct {
	Source RenderTarget
	Dest   TextureID
}

func (Blit) Type() CommandType { return CmdBlit }

// SetGlobalTexture publishes ID to every shader under Name.
type SetGlobalTexture struct {
	Name string
	ID   TextureID
}

func (SetGlobalTexture) Type() CommandType { return CmdSetGlobalTexture }

// SetRenderTarget binds the draw destination.
type SetRenderTarget struct {
	Color RenderTarget
	Depth RenderTarget
}

func (SetRenderTarget) Type() CommandType { return CmdSetRenderTarget }

// DrawMesh draws Mesh with Material at Transform.
type DrawMesh struct {
	Mesh      Mesh
	Transform mgl32.Mat4
	Material  Material
	Decal     ecs.Entity
}

func (DrawMesh) Type() CommandType { return CmdDrawMesh }

// ReleaseTemporary releases a target acquired by GetTemporary.
type ReleaseTemporary struct {
	ID TextureID
}

func (ReleaseTemporary) Type() CommandType { return CmdReleaseTemporary }

// Backend replays recorded commands against a real graphics context.
type Backend interface {
	GetTemporary(id TextureID)
	Blit(src RenderTarget, dst TextureID)
	SetGlobalTexture(name string, id TextureID)
	SetRenderTarget(color, depth RenderTarget)
	DrawMesh(mesh Mesh, transform mgl32.Mat4, material Material) error
	ReleaseTemporary(id TextureID)
}

// CommandBuffer is a named, ordered list of commands recorded once and
// replayed every frame. The name is its attachment identity on cameras.
type CommandBuffer struct {
	name     string
	commands []Command
}

// NewCommandBuffer returns an empty buffer called name.
func NewCommandBuffer(name string) *CommandBuffer {
	return &CommandBuffer{name: name}
}

// Name returns the buffer's attachment identity.
func (b *CommandBuffer) Name() string {
	if b == nil {
		return ""
	}
	return b.name
}

// Clear drops every recorded command.
func (b *CommandBuffer) Clear() {
	clear(b.commands)
	b.commands = b.commands[:0]
}

// Len returns the number of recorded commands.
func (b *CommandBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.commands)
}

// Commands returns the recorded commands. Callers must not modify the
// returned slice.
func (b *CommandBuffer) Commands() []Command {
	if b == nil {
		return nil
	}
	return b.commands
}

// Draws returns the recorded draw commands in order.
func (b *CommandBuffer) Draws() []DrawMesh {
	if b == nil {
		return nil
	}
	var out []DrawMesh
	for _, cmd := range b.commands {
		if draw, ok := cmd.(DrawMesh); ok {
			out = append(out, draw)
		}
	}
	return out
}

func (b *CommandBuffer) GetTemporary(id TextureID) {
	b.commands = append(b.commands, GetTemporary{ID: id})
}

func (b *CommandBuffer) Blit(src RenderTarget, dst TextureID) {
	b.commands = append(b.commands, Blit{Source: src, Dest: dst})
}

func (b *CommandBuffer) SetGlobalTexture(name string, id TextureID) {
	b.commands = append(b.commands, SetGlobalTexture{Name: name, ID: id})
}

func (b *CommandBuffer) SetRenderTarget(color, depth RenderTarget) {
	b.commands = append(b.commands, SetRenderTarget{Color: color, Depth: depth})
}

func (b *CommandBuffer) DrawMesh(mesh Mesh, transform mgl32.Mat4, material Material, decal ecs.Entity) {
	b.commands = append(b.commands, DrawMesh{Mesh: mesh, Transform: transform, Material: material, Decal: decal})
}

func (b *CommandBuffer) ReleaseTemporary(id TextureID) {
	b.commands = append(b.commands, ReleaseTemporary{ID: id})
}

// Playback replays every command into backend. A failed draw does not stop
// the replay; all draw failures are returned joined.
func (b *CommandBuffer) Playback(backend Backend) error {
	if b == nil || backend == nil {
		return nil
	}
	var errs []error
	for i, cmd := range b.commands {
		switch c := cmd.(type) {
		case GetTemporary:
			backend.GetTemporary(c.ID)
		case Blit:
			backend.Blit(c.Source, c.Dest)
		case SetGlobalTexture:
			backend.SetGlobalTexture(c.Name, c.ID)
		case SetRenderTarget:
			backend.SetRenderTarget(c.Color, c.Depth)
		case DrawMesh:
			if err := backend.DrawMesh(c.Mesh, c.Transform, c.Material); err != nil {
				errs = append(errs, fmt.Errorf("%s: command %d: decal %s: %w", b.name, i, c.Decal, err))
			}
		case ReleaseTemporary:
			backend.ReleaseTemporary(c.ID)
		}
	}
	return errors.Join(errs...)
}
