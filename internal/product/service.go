package product

// Service layers the catalog cache over the repository.
type Service struct {
	repo  Repository
	cache Cache
}

func NewService(repo Repository, cache Cache) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{repo: repo, cache: cache}
}

func (s *Service) List() ([]Product, error) {
	return s.repo.List()
}

func (s *Service) GetByID(id int) (Product, error) {
	if p, ok := s.cache.Get(id); ok {
		return p, nil
	}
	p, err := s.repo.GetByID(id)
	if err != nil {
		return Product{}, err
	}
	s.cache.Set(p)
	return p, nil
}

func (s *Service) ListByIDs(ids []int) ([]Product, error) {
	out := make([]Product, 0, len(ids))
	misses := make([]int, 0)
	for _, id := range ids {
		if p, ok := s.cache.Get(id); ok {
			out = append(out, p)
		} else {
			misses = append(misses, id)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := s.repo.ListByIDs(misses)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		s.cache.Set(p)
		out = append(out, p)
	}

	// restore the caller's ordering after the cache/db split
	pos := make(map[int]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	ordered := make([]Product, 0, len(out))
	for i := 0; i < len(ids); i++ {
		for _, p := range out {
			if pos[p.ID] == i {
				ordered = append(ordered, p)
				break
			}
		}
	}
	return ordered, nil
}

func (s *Service) Create(p Product) (Product, error) {
	return s.repo.Create(p)
}

func (s *Service) Update(id int, p Product) (Product, error) {
	updated, err := s.repo.Update(id, p)
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(id)
	return updated, nil
}

// InvalidateStock drops a cached row after the ledger touched its stock.
func (s *Service) InvalidateStock(id int) {
	s.cache.Invalidate(id)
}
