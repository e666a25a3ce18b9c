package standings

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/beach-tennis-system/models"
)

var (
	ErrUnknownCriterion = errors.New("unknown ranking criterion")
	ErrUnknownKingMode  = errors.New("unknown king calculation mode")
)

// Criterion is one ruleset token.
type Criterion string

const (
	CriterionWins                 Criterion = "wins"
	CriterionHeadToHead           Criterion = "h2h"
	CriterionSetsRatioBetween     Criterion = "sets_ratio_between"
	CriterionGamesRatioBetween    Criterion = "games_ratio_between"
	CriterionGamesRatioBetweenTB3 Criterion = "games_ratio_between_tb3_as_1_0"
	CriterionSetsRatioAll         Criterion = "sets_ratio_all"
	CriterionGamesRatioAll        Criterion = "games_ratio_all"
	CriterionNameAsc              Criterion = "name_asc"
)

var DefaultRuleset = []Criterion{
	CriterionWins,
	CriterionHeadToHead,
	CriterionSetsRatioBetween,
	CriterionGamesRatioBetween,
	CriterionSetsRatioAll,
	CriterionGamesRatioAll,
}

// DefaultKingRuleset has no head-to-head: partners change every round.
var DefaultKingRuleset = []Criterion{
	CriterionWins,
	CriterionSetsRatioAll,
	CriterionGamesRatioAll,
}

func ParseRuleset(tokens []string) ([]Criterion, error) {
	out := make([]Criterion, 0, len(tokens))
	for _, tok := range tokens {
		c := Criterion(strings.TrimSpace(strings.ToLower(tok)))
		switch c {
		case CriterionWins, CriterionHeadToHead, CriterionSetsRatioBetween, CriterionGamesRatioBetween,
			CriterionGamesRatioBetweenTB3, CriterionSetsRatioAll, CriterionGamesRatioAll, CriterionNameAsc:
			out = append(out, c)
		default:
			return nil, fmt.Errorf("%w %q", ErrUnknownCriterion, tok)
		}
	}
	return out, nil
}

// Entrant carries what the fallback tie-break needs.
type Entrant struct {
	ID      int
	Name    string
	Rating  float64
	Special bool
}

// Ranker orders a group by a ruleset. Ties left after the ruleset are broken
// by the special flag, rating desc, name (case-insensitive), then id.
type Ranker struct {
	Criteria []Criterion
	Format   models.MatchFormat

	stats   map[int]*Stats
	results []Result
	byID    map[int]Entrant
}

func NewRanker(criteria []Criterion, format models.MatchFormat) *Ranker {
	if len(criteria) == 0 {
		criteria = DefaultRuleset
	}
	return &Ranker{Criteria: criteria, Format: format}
}

// Rank returns entrant ids best first. stats may be nil, in which case they
// are aggregated from results.
func (r *Ranker) Rank(entrants []Entrant, results []Result, stats map[int]*Stats) []int {
	ids := make([]int, len(entrants))
	r.byID = make(map[int]Entrant, len(entrants))
	for i, e := range entrants {
		ids[i] = e.ID
		r.byID[e.ID] = e
	}
	r.results = results
	r.stats = stats
	if r.stats == nil {
		r.stats = Aggregate(ids, results, r.Format, false)
	}
	for _, id := range ids {
		if r.stats[id] == nil {
			r.stats[id] = &Stats{EntrantID: id}
		}
	}
	return r.rank(ids, 0)
}

func (r *Ranker) rank(bucket []int, idx int) []int {
	if len(bucket) <= 1 {
		return bucket
	}
	if idx >= len(r.Criteria) {
		return r.fallback(bucket)
	}

	if r.Criteria[idx] == CriterionHeadToHead {
		if ordered, ok := r.headToHead(bucket); ok {
			return ordered
		}
		return r.rank(bucket, idx+1)
	}

	key := r.keyFunc(r.Criteria[idx], bucket)
	sorted := append([]int(nil), bucket...)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i], sorted[j]) > 0 })

	out := make([]int, 0, len(bucket))
	for _, group := range partition(sorted, key) {
		out = append(out, r.rank(group, idx+1)...)
	}
	return out
}

// partition splits a sorted slice into runs of equal keys.
func partition(sorted []int, key func(a, b int) int) [][]int {
	var groups [][]int
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || key(sorted[start], sorted[i]) != 0 {
			groups = append(groups, sorted[start:i])
			start = i
		}
	}
	return groups
}

// keyFunc returns a comparison where a positive value ranks a above b.
func (r *Ranker) keyFunc(c Criterion, bucket []int) func(a, b int) int {
	switch c {
	case CriterionWins:
		return func(a, b int) int { return cmpInt(r.stats[a].Wins, r.stats[b].Wins) }
	case CriterionSetsRatioAll:
		return func(a, b int) int { return r.stats[a].SetsRatio().Compare(r.stats[b].SetsRatio()) }
	case CriterionGamesRatioAll:
		return func(a, b int) int { return r.stats[a].GamesRatio().Compare(r.stats[b].GamesRatio()) }
	case CriterionSetsRatioBetween:
		between := Aggregate(bucket, Between(r.results, bucket), r.Format, false)
		return func(a, b int) int { return between[a].SetsRatio().Compare(between[b].SetsRatio()) }
	case CriterionGamesRatioBetween, CriterionGamesRatioBetweenTB3:
		between := Aggregate(bucket, Between(r.results, bucket), r.Format, c == CriterionGamesRatioBetweenTB3)
		return func(a, b int) int { return between[a].GamesRatio().Compare(between[b].GamesRatio()) }
	case CriterionNameAsc:
		return func(a, b int) int {
			return -strings.Compare(strings.ToLower(r.byID[a].Name), strings.ToLower(r.byID[b].Name))
		}
	}
	return func(a, b int) int { return 0 }
}

// headToHead resolves a bucket by its mutual matches only. Two entrants are
// ordered by direct wins; three or more by a mini round-robin on wins, sets
// ratio and games ratio, accepted only when it leaves no ties.
func (r *Ranker) headToHead(bucket []int) ([]int, bool) {
	mutual := Between(r.results, bucket)
	if len(mutual) == 0 {
		return nil, false
	}
	mini := Aggregate(bucket, mutual, r.Format, false)

	if len(bucket) == 2 {
		a, b := bucket[0], bucket[1]
		switch cmpInt(mini[a].Wins, mini[b].Wins) {
		case 1:
			return []int{a, b}, true
		case -1:
			return []int{b, a}, true
		}
		return nil, false
	}

	key := func(a, b int) int {
		if c := cmpInt(mini[a].Wins, mini[b].Wins); c != 0 {
			return c
		}
		if c := mini[a].SetsRatio().Compare(mini[b].SetsRatio()); c != 0 {
			return c
		}
		return mini[a].GamesRatio().Compare(mini[b].GamesRatio())
	}
	sorted := append([]int(nil), bucket...)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i], sorted[j]) > 0 })
	for i := 1; i < len(sorted); i++ {
		if key(sorted[i-1], sorted[i]) == 0 {
			return nil, false
		}
	}
	return sorted, true
}

func (r *Ranker) fallback(bucket []int) []int {
	sorted := append([]int(nil), bucket...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := r.byID[sorted[i]], r.byID[sorted[j]]
		if a.Special != b.Special {
			return a.Special
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
	return sorted
}

// Ranks turns an ordered list into 1-based ranks.
func Ranks(ordered []int) map[int]int {
	out := make(map[int]int, len(ordered))
	for i, id := range ordered {
		out[id] = i + 1
	}
	return out
}

// KingRuleset drops the criteria that need fixed teams.
func KingRuleset(criteria []Criterion) []Criterion {
	var out []Criterion
	for _, c := range criteria {
		switch c {
		case CriterionHeadToHead, CriterionSetsRatioBetween, CriterionGamesRatioBetween, CriterionGamesRatioBetweenTB3:
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return DefaultKingRuleset
	}
	return out
}
