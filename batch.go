package aspen

// batchKey identifies commands that can share one device draw call.
type batchKey struct {
	shader  uint32
	texture uint32
	sampler SamplerState
}

func commandBatchKey(cmd *renderCommand) batchKey {
	return batchKey{shader: cmd.shader, texture: cmd.texture, sampler: cmd.sampler}
}

// buildBatches coalesces adjacent sorted commands with the same batchKey.
// Each quad contributes four vertices laid out top-left, top-right,
// bottom-left, bottom-right and six indices. Commands whose texture or
// shader died since they were queued are dropped.
//
// The returned batches alias the renderer's scratch buffers and are valid
// until the next call.
func (r *Renderer) buildBatches(cmds []renderCommand) []Batch {
	if need := len(cmds) * 4; cap(r.verts) < need {
		r.verts = make([]Vertex, 0, need)
	}
	if need := len(cmds) * 6; cap(r.indices) < need {
		r.indices = make([]uint32, 0, need)
	}
	if need := countBatches(cmds); cap(r.batches) < need {
		r.batches = make([]Batch, 0, need)
	}
	verts := r.verts[:0]
	indices := r.indices[:0]
	batches := r.batches[:0]

	var cur batchKey
	vstart, istart := 0, 0
	closeBatch := func() {
		if len(batches) == 0 {
			return
		}
		b := &batches[len(batches)-1]
		b.Vertices = verts[vstart:len(verts):len(verts)]
		b.Indices = indices[istart:len(indices):len(indices)]
	}

	for i := range cmds {
		cmd := &cmds[i]
		if !cmd.tex.Valid() || cmd.tex.id != cmd.texture || (cmd.prog != nil && cmd.prog.destroyed) {
			r.frame.Skipped++
			continue
		}
		key := commandBatchKey(cmd)
		if len(batches) == 0 || key != cur {
			closeBatch()
			b := Batch{Texture: key.texture, Shader: key.shader, Sampler: key.sampler}
			if cmd.prog != nil {
				b.Uniforms = cmd.prog.snapshot()
			}
			batches = append(batches, b)
			cur = key
			vstart, istart = len(verts), len(indices)
		}
		base := uint32(len(verts) - vstart)
		verts = append(verts, cmd.quad[:]...)
		indices = append(indices, base, base+1, base+2, base+1, base+3, base+2)
	}
	closeBatch()

	r.verts, r.indices, r.batches = verts, indices, batches
	return batches
}
