package ecs

// StoreStats summarizes the contents of a Store.
type StoreStats struct {
	EntityCount    int
	ComponentCount int
	Types          []ComponentTypeStats
}

// ComponentTypeStats is the population of one component type.
type ComponentTypeStats struct {
	Name  string
	Count int
}

// Stats collects per-type component counts, sorted by type name.
func (s *Store) Stats() StoreStats {
	types := s.ComponentTypes()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{
		EntityCount: s.known.Len(),
		Types:       make([]ComponentTypeStats, 0, len(types)),
	}
	for _, t := range types {
		count := s.containers[t].len()
		stats.ComponentCount += count
		stats.Types = append(stats.Types, ComponentTypeStats{
			Name:  t.String(),
			Count: count,
		})
	}
	return stats
}
