package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/model"
	"github.com/voxpilot/voxpilot/internal/platform"
)

// ErrSearchTimeout is returned when a search exceeds its budget. The caller
// escalates to the vision path instead of retrying.
var ErrSearchTimeout = errors.New("element search timed out")

// Query describes one element search.
type Query struct {
	// Roles is the set of role codes considered actionable. Meta-roles are
	// expanded; an empty set means all interactive roles.
	Roles []string
	// Text is the spoken target, e.g. "the gmail link".
	Text string
	// Scope limits the search to one application ("" = frontmost).
	Scope platform.Scope
	// Threshold overrides the configured minimum score when > 0.
	Threshold int
}

// Candidate records one considered element for diagnostics.
type Candidate struct {
	Text      string `json:"text"`
	Attribute string `json:"attribute"`
	Score     int    `json:"score"`
}

// MatchResult is the outcome of a search. Element is nil when nothing scored
// at or above the threshold; when it is non-nil, Confidence >= threshold.
type MatchResult struct {
	Element          *model.Element
	MatchedAttribute string
	Confidence       int
	Candidates       []Candidate
}

// Resolver searches accessibility tree snapshots for elements matching a
// role set and fuzzy text.
type Resolver struct {
	reader platform.TreeReader
	cache  *SnapshotCache
	cfg    config.ResolverConfig
	log    *zap.Logger
}

// New creates a Resolver backed by the given tree reader.
func New(reader platform.TreeReader, cfg config.ResolverConfig, log *zap.Logger) *Resolver {
	return &Resolver{
		reader: reader,
		cache:  NewSnapshotCache(cfg.SnapshotTTL),
		cfg:    cfg,
		log:    log.Named("resolver"),
	}
}

// scored pairs a matched element with its tie-breaking keys.
type scored struct {
	el    *model.Element
	attr  string
	score int
	depth int
	order int
}

// Resolve searches the scoped tree for the best fuzzy match. Candidates are
// elements whose role is in the (expanded) role set; for each, the configured
// text attributes are checked in priority order and the first attribute
// scoring at or above the threshold wins for that candidate. Among passing
// candidates the highest score wins; ties break by shallower tree depth, then
// encounter order. A nil Element with nil error means no match.
func (r *Resolver) Resolve(ctx context.Context, q Query) (MatchResult, error) {
	if q.Text == "" {
		return MatchResult{}, fmt.Errorf("resolve: empty target text")
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.SearchTimeout)
	defer cancel()

	elements, err := r.cache.Snapshot(ctx, r.reader, q.Scope)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return MatchResult{}, fmt.Errorf("%w: snapshot exceeded %s", ErrSearchTimeout, r.cfg.SearchTimeout)
		}
		return MatchResult{}, fmt.Errorf("snapshot failed: %w", err)
	}

	threshold := q.Threshold
	if threshold <= 0 {
		threshold = r.cfg.Threshold
	}

	roleSet := make(map[string]bool)
	for _, role := range model.ExpandRoles(q.Roles) {
		roleSet[role] = true
	}

	attrs := r.cfg.Attributes
	if len(attrs) == 0 {
		attrs = []string{"title", "description", "value"}
	}

	var (
		result     MatchResult
		passing    []scored
		order      int
		timedOut   bool
		considered int
	)

	model.Walk(elements, func(el *model.Element, depth int) bool {
		if ctx.Err() != nil {
			timedOut = true
			return false
		}
		if !roleSet[el.Role] {
			return true
		}
		if !el.IsEnabled() {
			return true
		}
		considered++
		order++

		// First attribute at or above the threshold wins for this candidate;
		// absent attributes and low scores both advance to the next one.
		best := Candidate{}
		for _, attr := range attrs {
			value := attributeValue(el, attr)
			if value == "" {
				continue
			}
			score := Score(q.Text, value)
			if score > best.Score {
				best = Candidate{Text: value, Attribute: attr, Score: score}
			}
			if score >= threshold {
				passing = append(passing, scored{el: el, attr: attr, score: score, depth: depth, order: order})
				best = Candidate{Text: value, Attribute: attr, Score: score}
				break
			}
		}
		if best.Text != "" {
			result.Candidates = append(result.Candidates, best)
		}
		return true
	})

	if timedOut {
		return MatchResult{}, fmt.Errorf("%w after considering %d candidates", ErrSearchTimeout, considered)
	}

	if len(passing) == 0 {
		r.log.Debug("no element above threshold",
			zap.String("target", q.Text),
			zap.Int("threshold", threshold),
			zap.Int("considered", considered))
		return result, nil
	}

	sort.SliceStable(passing, func(i, j int) bool {
		if passing[i].score != passing[j].score {
			return passing[i].score > passing[j].score
		}
		if passing[i].depth != passing[j].depth {
			return passing[i].depth < passing[j].depth
		}
		return passing[i].order < passing[j].order
	})

	winner := passing[0]
	result.Element = winner.el
	result.MatchedAttribute = winner.attr
	result.Confidence = winner.score

	r.log.Debug("element resolved",
		zap.String("target", q.Text),
		zap.String("matched", attributeValue(winner.el, winner.attr)),
		zap.String("attribute", winner.attr),
		zap.Int("score", winner.score),
		zap.Int("candidates", considered))
	return result, nil
}

// Invalidate drops any cached snapshot for the scope. Call after executing
// an action that may have changed the UI.
func (r *Resolver) Invalidate(scope platform.Scope) {
	r.cache.Invalidate(scope)
}

func attributeValue(el *model.Element, attr string) string {
	switch attr {
	case "title":
		return el.Title
	case "description":
		return el.Description
	case "value":
		return el.Value
	default:
		return ""
	}
}
