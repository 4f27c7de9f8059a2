package controls

// PositionInfo resolves pos into an injection point: the store index new
// controls land at plus the section and tab context they inherit. Invalid
// type/at pairs are usage errors; an unknown target, or one with no section
// before it, yields ErrPositionNotFound. Nothing is mutated.
func (s *Stack) PositionInfo(pos Position) (InjectionPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.positionInfo(pos)
}

func (s *Stack) positionInfo(pos Position) (InjectionPoint, error) {
	pos, err := normalizePosition(pos)
	if err != nil {
		return InjectionPoint{}, usageError("position", pos.Of, err)
	}

	target := s.store.IndexOf(pos.Of)
	if target < 0 {
		return InjectionPoint{}, ErrPositionNotFound
	}

	sectionIndex := target
	for sectionIndex >= 0 && s.store.typeAt(sectionIndex) != TypeSection {
		sectionIndex--
	}
	if sectionIndex < 0 {
		return InjectionPoint{}, ErrPositionNotFound
	}

	if pos.Type == PositionSection {
		target++
		if pos.At == AtEnd {
			for target < s.store.Len() && s.store.typeAt(target) != TypeSection {
				target++
			}
		}
	}

	landing, hasLanding := s.store.At(target)
	if pos.At == AtAfter {
		target++
	}

	section, err := s.sectionArgs(s.store.Keys()[sectionIndex])
	if err != nil {
		return InjectionPoint{}, err
	}
	point := InjectionPoint{Index: target, Section: section}
	if hasLanding && landing.TabsWrapper != "" {
		point.Tab = &TabsContext{TabsWrapper: landing.TabsWrapper, InnerTab: landing.InnerTab}
	}
	return point, nil
}

// normalizePosition fills the defaults (type control, at after; at end for
// sections) and rejects pairs outside before/after and start/end.
func normalizePosition(pos Position) (Position, error) {
	if pos.Type == "" {
		pos.Type = PositionControl
	}
	if pos.At == "" {
		pos.At = AtAfter
		if pos.Type == PositionSection {
			pos.At = AtEnd
		}
	}
	switch pos.Type {
	case PositionControl:
		if pos.At != AtBefore && pos.At != AtAfter {
			return pos, ErrInvalidPosition
		}
	case PositionSection:
		if pos.At != AtStart && pos.At != AtEnd {
			return pos, ErrInvalidPosition
		}
	default:
		return pos, ErrInvalidPosition
	}
	return pos, nil
}

// StartInjection redirects subsequent adds to pos until EndInjection.
func (s *Stack) StartInjection(pos Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startInjection(pos)
}

func (s *Stack) startInjection(pos Position) error {
	if s.state.Injection != nil {
		return usageError("start_injection", pos.Of, ErrInjectionOpen)
	}
	point, err := s.positionInfo(pos)
	if err != nil {
		return err
	}
	return usageError("start_injection", pos.Of, s.state.openInjection(point))
}

// EndInjection restores normal appending.
func (s *Stack) EndInjection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return usageError("end_injection", "", s.state.closeInjection())
}
