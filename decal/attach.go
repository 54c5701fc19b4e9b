package decal

import "log/slog"

// Attacher attaches the static and dynamic buffers to cameras. Buffers are
// matched by name so copies left behind by an earlier buffer instance are
// still found.
type Attacher struct {
	Static  *CommandBuffer
	Dynamic *CommandBuffer
	Logger  *slog.Logger
}

// Detach removes every buffer named like the static or dynamic buffer from
// every event of cam, so an attachment at a previously configured event
// does not survive. It returns how many buffers were removed.
func (a Attacher) Detach(cam Camera) int {
	log := loggerOrNop(a.Logger)
	if cam == nil {
		return 0
	}
	if a.Static == nil || a.Dynamic == nil {
		log.Error("removing buffers before they exist", "camera", cam.Name())
		return 0
	}

	removed := 0
	for _, ev := range CameraEvents() {
		// Copy first: the camera may mutate its list while we remove.
		existing := append([]*CommandBuffer(nil), cam.CommandBuffers(ev)...)
		for _, buf := range existing {
			if buf == nil {
				continue
			}
			if buf.Name() != a.Static.Name() && buf.Name() != a.Dynamic.Name() {
				continue
			}
			log.Debug("removing buffer", "buffer", buf.Name(), "camera", cam.Name(), "event", ev)
			cam.RemoveCommandBuffer(ev, buf)
			removed++
		}
	}
	if removed == 0 {
		log.Debug("no decal buffers attached", "camera", cam.Name())
	}
	return removed
}

// Attach adds the requested buffers to cam at ev. A buffer whose name is
// already attached at ev is skipped. Only ev is checked; call Detach first
// when the event may have changed. It returns how many buffers were added.
func (a Attacher) Attach(cam Camera, ev CameraEvent, includeStatic, includeDynamic bool) int {
	log := loggerOrNop(a.Logger)
	if cam == nil {
		return 0
	}
	if a.Static == nil || a.Dynamic == nil {
		log.Error("assigning buffers before they exist", "camera", cam.Name())
		return 0
	}

	existing := cam.CommandBuffers(ev)
	added := 0
	for _, want := range []struct {
		buf     *CommandBuffer
		include bool
	}{
		{a.Static, includeStatic},
		{a.Dynamic, includeDynamic},
	} {
		if !want.include {
			continue
		}
		if hasBuffer(existing, want.buf.Name()) {
			log.Warn("buffer already attached", "buffer", want.buf.Name(), "camera", cam.Name(), "event", ev)
			continue
		}
		log.Debug("assigning buffer", "buffer", want.buf.Name(), "camera", cam.Name(), "event", ev)
		cam.AddCommandBuffer(ev, want.buf)
		added++
	}
	return added
}

func hasBuffer(bufs []*CommandBuffer, name string) bool {
	for _, b := range bufs {
		if b != nil && b.Name() == name {
			return true
		}
	}
	return false
}
