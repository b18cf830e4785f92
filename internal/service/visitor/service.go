package visitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/foxfolio/portfolio-api/internal/domain"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
)

// DefaultPageSize bounds how many visitors All holds in memory at once.
const DefaultPageSize = 500

// Service implements the visitor registry. It is safe for concurrent use.
type Service struct {
	repo     Repository
	pageSize int
	now      func() time.Time
}

// NewService creates a visitor registry backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, pageSize: DefaultPageSize, now: time.Now}
}

// FindOrCreate returns the visitor registered under email, creating it with
// the given name when none exists. created reports whether this call
// inserted the record. An existing visitor is returned unchanged.
func (s *Service) FindOrCreate(ctx context.Context, email, name string) (domain.Visitor, bool, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return domain.Visitor{}, false, err
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return *existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Visitor{}, false, fmt.Errorf("lookup visitor: %w", err)
	}

	v := domain.Visitor{
		Email:        email,
		Name:         strings.TrimSpace(name),
		RegisteredAt: s.now().UTC(),
	}
	err = s.repo.Create(ctx, &v)
	switch {
	case err == nil:
		logger.Info("visitor registered", "visitor_id", v.ID, "email", v.Email)
		return v, true, nil
	case errors.Is(err, domain.ErrDuplicate):
		// Another request inserted the same email between our read and write.
		winner, gerr := s.repo.GetByEmail(ctx, email)
		if gerr != nil {
			return domain.Visitor{}, false, fmt.Errorf("re-read visitor after conflict: %w", gerr)
		}
		return *winner, false, nil
	default:
		return domain.Visitor{}, false, fmt.Errorf("create visitor: %w", err)
	}
}

// UpdateName overwrites v's stored name when name is non-empty and differs.
// Concurrent updates race and the last write wins.
func (s *Service) UpdateName(ctx context.Context, v *domain.Visitor, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || name == v.Name {
		return nil
	}
	if err := s.repo.UpdateName(ctx, v.ID, name); err != nil {
		return fmt.Errorf("update visitor name: %w", err)
	}
	v.Name = name
	return nil
}

// All yields every registered visitor in registration order, one page at a
// time. The sequence is lazy and restartable; visitors registered while it
// is being consumed may or may not be included. Iteration stops after the
// first storage error, which is yielded once.
func (s *Service) All(ctx context.Context) iter.Seq2[domain.Visitor, error] {
	return func(yield func(domain.Visitor, error) bool) {
		var after int64
		for {
			page, err := s.repo.Page(ctx, after, s.pageSize)
			if err != nil {
				yield(domain.Visitor{}, fmt.Errorf("list visitors: %w", err))
				return
			}
			for _, v := range page {
				if !yield(v, nil) {
					return
				}
				after = v.ID
			}
			if len(page) < s.pageSize {
				return
			}
		}
	}
}

// Exists reports whether email is registered.
func (s *Service) Exists(ctx context.Context, email string) (bool, error) {
	return s.repo.Exists(ctx, domain.NormalizeEmail(email))
}

// Count returns the number of registered visitors.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Import registers one visitor per line of r. Only the text before the first
// tab is used, so spreadsheet exports can be pasted as-is. Blank lines are
// skipped; malformed addresses are counted, not fatal.
func (s *Service) Import(ctx context.Context, r io.Reader) (domain.ImportReport, error) {
	var report domain.ImportReport
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '\t'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" {
			continue
		}
		_, created, err := s.FindOrCreate(ctx, line, "")
		switch {
		case errors.Is(err, domain.ErrValidation):
			report.Invalid++
		case err != nil:
			return report, err
		case created:
			report.Added++
		default:
			report.Existing++
		}
	}
	if err := sc.Err(); err != nil {
		return report, fmt.Errorf("read import: %w", err)
	}
	return report, nil
}
