package announce

// Entry is a stored template together with its 1-based index.
type Entry struct {
	Index int
	Text  string
}

// Store is the ordered announcement list with 1-based external indexing.
// It is not safe for concurrent use; Service serializes access.
type Store struct {
	items []string
}

func NewStore(items []string) *Store {
	return &Store{items: append([]string(nil), items...)}
}

func (s *Store) Size() int { return len(s.items) }

// Add appends a template. It always succeeds.
func (s *Store) Add(msg string) int {
	s.items = append(s.items, msg)
	return len(s.items)
}

func (s *Store) check(index int) error {
	if index < 1 || index > len(s.items) {
		return &OutOfRangeError{Index: index, Size: len(s.items)}
	}
	return nil
}

func (s *Store) Get(index int) (string, error) {
	if err := s.check(index); err != nil {
		return "", err
	}
	return s.items[index-1], nil
}

// Remove deletes the template at index and returns it. Later entries shift down.
func (s *Store) Remove(index int) (string, error) {
	if err := s.check(index); err != nil {
		return "", err
	}
	removed := s.items[index-1]
	s.items = append(s.items[:index-1], s.items[index:]...)
	return removed, nil
}

// Page returns the entries of the 1-based page. pageSize <= 0 returns everything.
// Pages below 1 or past the data are empty, not errors.
func (s *Store) Page(page, pageSize int) []Entry {
	if pageSize <= 0 {
		return s.entries(0, len(s.items))
	}
	if page < 1 {
		return []Entry{}
	}
	start := (page - 1) * pageSize
	if start >= len(s.items) {
		return []Entry{}
	}
	end := start + pageSize
	if end > len(s.items) {
		end = len(s.items)
	}
	return s.entries(start, end)
}

func (s *Store) entries(start, end int) []Entry {
	out := make([]Entry, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, Entry{Index: i + 1, Text: s.items[i]})
	}
	return out
}

// Pages returns the number of pages needed for pageSize, at least 1.
func (s *Store) Pages(pageSize int) int {
	if pageSize <= 0 || len(s.items) == 0 {
		return 1
	}
	return (len(s.items) + pageSize - 1) / pageSize
}

// All returns a copy of the templates in order.
func (s *Store) All() []string { return append([]string(nil), s.items...) }

// Replace swaps the whole list, as on config reload.
func (s *Store) Replace(items []string) { s.items = append([]string(nil), items...) }
