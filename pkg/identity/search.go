package identity

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/internal/repositories"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type searchPhase string

const (
	phasePrefix   searchPhase = "p"
	phaseContains searchPhase = "c"
)

// searchCursor is the position of the next page: the pass and the offset within it
type searchCursor struct {
	phase  searchPhase
	offset int
}

func (c searchCursor) encode() *string {
	token := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%d", c.phase, c.offset)))
	return &token
}

func decodeCursor(token string) (searchCursor, error) {
	if token == "" {
		return searchCursor{phase: phasePrefix}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return searchCursor{}, repositories.BadRequest("invalid cursor")
	}
	phase, offset, ok := strings.Cut(string(raw), ":")
	if !ok {
		return searchCursor{}, repositories.BadRequest("invalid cursor")
	}
	n, err := strconv.Atoi(offset)
	if err != nil || n < 0 {
		return searchCursor{}, repositories.BadRequest("invalid cursor")
	}
	switch searchPhase(phase) {
	case phasePrefix, phaseContains:
		return searchCursor{phase: searchPhase(phase), offset: n}, nil
	default:
		return searchCursor{}, repositories.BadRequest("invalid cursor")
	}
}

func clampPageSize(pageSize int) int {
	if pageSize <= 0 {
		return DefaultPageSize
	}
	return min(pageSize, MaxPageSize)
}

func emptyPage() *models.MasterPage {
	return &models.MasterPage{Items: []models.MasterExercise{}}
}

// SearchMasters pages through the owner's masters matching query. Prefix matches come first,
// then masters containing the query elsewhere. A blank query returns an empty page without
// touching storage, and storage failures in either pass degrade to an empty page.
func (r *Registry) SearchMasters(ctx context.Context, ownerID, query string, pageSize int, cursor string) (*models.MasterPage, error) {
	ctx, span := tracing.StartSpan(ctx, "identity.SearchMasters")
	defer span.End()

	if err := repositories.RequireOwner(ownerID); err != nil {
		return nil, err
	}

	normalized := normalizers.ExerciseName(query)
	if normalized == "" {
		return emptyPage(), nil
	}

	position, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	pageSize = clampPageSize(pageSize)

	page, err := r.search(ctx, ownerID, normalized, pageSize, position)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": ownerID,
			"query":    normalized,
		}).Warn("master search failed, returning empty page")
		metrics.RecordDegradedRead("search_masters")
		return emptyPage(), nil
	}
	return page, nil
}

// search fetches one row past each pass's remaining room to learn whether more rows follow
func (r *Registry) search(ctx context.Context, ownerID, query string, pageSize int, position searchCursor) (*models.MasterPage, error) {
	items := make([]models.MasterExercise, 0, pageSize)
	seen := map[string]struct{}{}
	add := func(rows []models.MasterExercise) {
		for _, row := range rows {
			if _, dup := seen[row.ID]; dup {
				continue
			}
			seen[row.ID] = struct{}{}
			items = append(items, row)
		}
	}

	offset := position.offset
	if position.phase == phasePrefix {
		rows, err := r.masters.SearchPrefix(ctx, ownerID, query, pageSize+1, offset)
		if err != nil {
			return nil, err
		}
		if len(rows) > pageSize {
			add(rows[:pageSize])
			next := searchCursor{phase: phasePrefix, offset: offset + pageSize}
			return &models.MasterPage{Items: items, NextCursor: next.encode()}, nil
		}
		add(rows)
		offset = 0
	}

	room := pageSize - len(items)
	rows, err := r.masters.SearchContains(ctx, ownerID, query, room+1, offset)
	if err != nil {
		return nil, err
	}
	var next *string
	if len(rows) > room {
		rows = rows[:room]
		next = searchCursor{phase: phaseContains, offset: offset + room}.encode()
	}
	add(rows)
	return &models.MasterPage{Items: items, NextCursor: next}, nil
}
