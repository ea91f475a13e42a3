package resolver

import (
	"context"
	"strings"

	"github.com/tgrab-dl/tgrab/internal/domain"
	"github.com/tgrab-dl/tgrab/internal/logger"
)

// Resolver maps user-supplied group IDs or a name pattern onto concrete
// groups by scanning the account's dialog list exactly once.
type Resolver struct {
	dialogs domain.DialogLister
	log     *logger.Logger
}

func New(dialogs domain.DialogLister, log *logger.Logger) *Resolver {
	return &Resolver{dialogs: dialogs, log: log}
}

// Resolve returns the dialogs whose id is in ids, or whose name contains
// pattern (case-insensitive). Matches keep source iteration order. An empty
// result is not an error; the caller proceeds with zero work.
func (r *Resolver) Resolve(ctx context.Context, ids []int64, pattern string) ([]domain.Group, error) {
	idSet := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	pattern = strings.ToLower(pattern)

	var groups []domain.Group
	err := r.dialogs.ForEachDialog(ctx, func(g domain.Group) error {
		if matches(g, idSet, pattern) {
			r.log.Debug("Dialog %d (%s) matches", g.ID, g.Name)
			groups = append(groups, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return groups, nil
}

func matches(g domain.Group, idSet map[int64]struct{}, pattern string) bool {
	if _, ok := idSet[g.ID]; ok {
		return true
	}
	return pattern != "" && strings.Contains(strings.ToLower(g.Name), pattern)
}
