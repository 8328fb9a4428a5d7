package pcb

// OutlineBounds returns the extent of the top-level Edge.Cuts curves in
// board coordinates. Module edge curves are not included because they are
// in footprint-local coordinates.
func (b *Board) OutlineBounds() BoundingBox {
	bbox := NewBoundingBox()
	for _, c := range b.Curves {
		bbox.ExpandBox(c.Bounds())
	}
	return bbox
}

// ModuleBounds returns the extent of a module's pads and edge curves in
// footprint-local coordinates
func (m *Module) ModuleBounds() BoundingBox {
	bbox := NewBoundingBox()

	for _, pad := range m.Pads {
		half := pad.Drill.Size.Width / 2.0
		if pad.Drill.Size.Height/2.0 > half {
			half = pad.Drill.Size.Height / 2.0
		}
		bbox.Expand(Position{X: pad.Position.X - half, Y: pad.Position.Y - half})
		bbox.Expand(Position{X: pad.Position.X + half, Y: pad.Position.Y + half})
	}

	for _, c := range m.Curves {
		bbox.ExpandBox(c.Bounds())
	}

	// If nothing else, at least include the origin
	if bbox.IsEmpty() {
		bbox.Expand(Position{})
	}

	return bbox
}
