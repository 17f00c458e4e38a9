package filament

// DefaultCollisionHandler handles the contacts of the body against other,
// through CollisionHandler when it is set and SeparateNodes otherwise.
// The world calls it with the body itself for self collision.
func (b *Body) DefaultCollisionHandler(other *Body) {
	if other == nil {
		return
	}
	if b.CollisionHandler != nil {
		b.CollisionHandler(b, other)
		return
	}
	SeparateNodes(b, other)
}

// SeparateNodes pushes apart nodes closer than the sum of their radii.
// For self collision, nodes closer than that distance along the rest shape of
// the chain are neighbours and never collide.
func SeparateNodes(self, other *Body) {
	minDistance := self.Radius + other.Radius
	if minDistance <= 0 {
		return
	}

	if self != other {
		if !self.GetAABB().Overlaps(other.GetAABB()) {
			return
		}
		for i := range self.Nodes {
			for j := range other.Nodes {
				separate(&self.Nodes[i], &other.Nodes[j], minDistance)
			}
		}
		return
	}

	arc := self.arcLengths()
	for i := range self.Nodes {
		for j := i + 2; j < len(self.Nodes); j++ {
			if arc[j]-arc[i] < minDistance {
				continue
			}
			separate(&self.Nodes[i], &self.Nodes[j], minDistance)
		}
	}
}

// arcLengths[i] is the rest length of the chain from node 0 to node i
func (b *Body) arcLengths() []float64 {
	arc := make([]float64, len(b.Nodes))
	for i := 1; i < len(arc); i++ {
		if i-1 < len(b.RestLengths) {
			arc[i] = arc[i-1] + b.RestLengths[i-1]
		} else {
			arc[i] = arc[i-1]
		}
	}
	return arc
}

func separate(a, b *Node, minDistance float64) {
	w := a.InverseMass + b.InverseMass
	if w == 0 {
		return
	}
	delta := b.Position.Sub(a.Position)
	distance := delta.Len()
	if distance >= minDistance || distance < 1e-12 {
		return
	}

	normal := delta.Mul(1.0 / distance)
	correction := (minDistance - distance) / w
	a.Position = a.Position.Sub(normal.Mul(correction * a.InverseMass))
	b.Position = b.Position.Add(normal.Mul(correction * b.InverseMass))
}
