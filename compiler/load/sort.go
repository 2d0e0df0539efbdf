package load

import "errors"

// Sort orders the set's plugins so that every plugin appears after all
// of its dependencies (Kahn's algorithm), breaking ties by discovery
// order. Unknown dependency names abort before sorting; a dependency
// cycle aborts with the names of the plugins stuck in it. The sorted
// order is stored on the set and returned by Sorted.
func (s *Set) Sort() error {
	var errs []error
	for _, p := range s.order {
		var missing []string
		for _, dep := range p.DependsOn() {
			if _, ok := s.plugins[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, NewUnknownDependencyError(p.Name, missing))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	unmet := make(map[string]int, len(s.order))
	for _, p := range s.order {
		unmet[p.Name] = len(p.DependsOn())
	}
	dependents := make(map[string][]string, len(s.order))
	for _, p := range s.order {
		for _, dep := range p.DependsOn() {
			dependents[dep] = append(dependents[dep], p.Name)
		}
	}

	sorted := make([]*Plugin, 0, len(s.order))
	emitted := make(map[string]bool, len(s.order))
	for len(sorted) < len(s.order) {
		// Pick the first plugin, in discovery order, with all
		// dependencies satisfied. The scan keeps ties deterministic.
		next := ""
		for _, p := range s.order {
			if !emitted[p.Name] && unmet[p.Name] == 0 {
				next = p.Name
				break
			}
		}
		if next == "" {
			var remaining []string
			for _, p := range s.order {
				if !emitted[p.Name] {
					remaining = append(remaining, p.Name)
				}
			}
			return NewCircularDependencyError(remaining)
		}
		emitted[next] = true
		sorted = append(sorted, s.plugins[next])
		for _, d := range dependents[next] {
			unmet[d]--
		}
	}
	s.sorted = sorted
	return nil
}
