package storage

// idSet holds every id believed present in the backing file.
type idSet map[int]struct{}

// add inserts id and reports whether it was absent.
func (s idSet) add(id int) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s idSet) has(id int) bool {
	_, ok := s[id]
	return ok
}

func (s idSet) remove(id int) {
	delete(s, id)
}
