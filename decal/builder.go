package decal

import "log/slog"

// ScreenTextureName is the global shader input holding a copy of the
// camera target taken just before decals draw.
const ScreenTextureName = "_FDS_ScreenTex"

// Temporary target ids. Static and dynamic buffers can run in the same
// frame, so each gets its own copy.
const (
	StaticScreenTexture  TextureID = "ForwardDecalSystem_Static_ScreenTex"
	DynamicScreenTexture TextureID = "ForwardDecalSystem_Dynamic_ScreenTex"
)

// BuildStats summarizes one Build call.
type BuildStats struct {
	Drawn   int
	Skipped int
}

// Builder records a batch into a command buffer.
type Builder struct {
	// Logger receives per-decal diagnostics. Nil is silent.
	Logger *slog.Logger
}

// Build clears buf and records every drawable decal of batch. An empty batch
// leaves buf empty. Decals with no material are skipped; hidden decals are
// skipped for the dynamic batch only. The temporary screen copy acquired
// for the pass is always released at the end of the buffer.
//
// Build leaves buf untouched when there is no fallback mesh to draw with.
func (b Builder) Build(buf *CommandBuffer, batch *Batch, fallback Mesh, label TextureID) BuildStats {
	log := loggerOrNop(b.Logger)
	var stats BuildStats
	if buf == nil {
		log.Error("updating buffer that does not exist", "label", label)
		return stats
	}
	if fallback == nil {
		log.Error("updating buffer without a fallback mesh", "buffer", buf.Name())
		return stats
	}

	buf.Clear()
	if batch.Len() == 0 {
		return stats
	}

	buf.GetTemporary(label)
	buf.Blit(CameraTarget, label)
	buf.SetGlobalTexture(ScreenTextureName, label)
	buf.SetRenderTarget(CameraTarget, CameraTarget)

	dynamic := batch.Kind() == BatchDynamic
	for _, d := range batch.Decals() {
		if d == nil || d.Material == nil {
			log.Warn("decal has no material", "buffer", buf.Name(), "decal", d.label())
			stats.Skipped++
			continue
		}
		if dynamic && !d.Enabled {
			stats.Skipped++
			continue
		}
		mesh := d.Mesh
		if mesh == nil {
			mesh = fallback
		}
		buf.DrawMesh(mesh, d.Transform, d.Material, d.entity)
		stats.Drawn++
	}

	buf.ReleaseTemporary(label)
	return stats
}
