package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/Dosada05/beach-tennis-system/models"
)

var (
	ErrInvalidBracketSize = errors.New("bracket size must be a power of two and at least 2")
	ErrTooManyEntrants    = errors.New("more entrants than bracket positions")
	ErrTooManyByes        = errors.New("too many byes for bracket size")
)

// RoundInfo describes one knockout round. The third-place match is a
// pseudo-round after the final.
type RoundInfo struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	Matches      int    `json:"matches"`
	IsThirdPlace bool   `json:"is_third_place"`
}

// BracketSize is the smallest power of two holding ceil(planned/brackets) entrants.
func BracketSize(planned, brackets int) (int, error) {
	if brackets < 1 {
		brackets = 1
	}
	perBracket := (planned + brackets - 1) / brackets
	size := 2
	for size < perBracket {
		size <<= 1
	}
	if err := ValidateBracketSize(size); err != nil {
		return 0, err
	}
	return size, nil
}

func ValidateBracketSize(size int) error {
	if size < 2 || size&(size-1) != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidBracketSize, size)
	}
	return nil
}

func RoundName(matches int) string {
	switch matches {
	case 1:
		return "Final"
	case 2:
		return "Semifinal"
	case 4:
		return "Quarterfinal"
	}
	return fmt.Sprintf("Round of %d", 2*matches)
}

const ThirdPlaceRoundName = "Third place"

// RoundsStructure lists the elimination rounds from the first to the final.
func RoundsStructure(size int, hasThirdPlace bool) ([]RoundInfo, error) {
	if err := ValidateBracketSize(size); err != nil {
		return nil, err
	}
	var rounds []RoundInfo
	for matches, idx := size/2, 1; matches >= 1; matches, idx = matches/2, idx+1 {
		rounds = append(rounds, RoundInfo{Index: idx, Name: RoundName(matches), Matches: matches})
	}
	if hasThirdPlace && size >= 4 {
		rounds = append(rounds, RoundInfo{Index: len(rounds) + 1, Name: ThirdPlaceRoundName, Matches: 1, IsThirdPlace: true})
	}
	return rounds, nil
}

// fixedSeedPositions are the ITF positions of the top seeds for common sizes.
var fixedSeedPositions = map[int][]int{
	8:  {1, 8},
	16: {1, 16, 5, 12},
	32: {1, 32, 9, 24, 8, 25, 16, 17},
}

// recursiveOrder is the top/bottom alternating draw order: seed k of a full
// draw of this size sits at position order[k-1].
func recursiveOrder(size int) []int {
	order := []int{1, 2}
	for n := 2; n < size; n *= 2 {
		next := make([]int, 0, 2*n)
		for j, x := range order {
			if j%2 == 0 {
				next = append(next, x, 2*n+1-x)
			} else {
				next = append(next, 2*n+1-x, x)
			}
		}
		order = next
	}
	return order
}

// SeedOrder returns one position per first-round match, strongest first. Seeds
// are placed along it and BYEs are given to the opponents of its first entries.
func SeedOrder(size int) []int {
	order := make([]int, 0, size/2)
	usedMatch := make(map[int]bool, size/2)
	add := func(pos int) {
		m := (pos + 1) / 2
		if usedMatch[m] {
			return
		}
		usedMatch[m] = true
		order = append(order, pos)
	}
	for _, pos := range fixedSeedPositions[size] {
		add(pos)
	}
	for _, pos := range recursiveOrder(size) {
		add(pos)
	}
	return order
}

// Opponent is the position sharing a first-round match with pos.
func Opponent(pos int) int {
	if pos%2 == 1 {
		return pos + 1
	}
	return pos - 1
}

// ByePositions returns the BYE positions, sorted, for the given real entrant count.
func ByePositions(size, entrants int) ([]int, error) {
	if err := ValidateBracketSize(size); err != nil {
		return nil, err
	}
	numByes := size - entrants
	if numByes < 0 {
		return nil, fmt.Errorf("%w: %d entrants for size %d", ErrTooManyEntrants, entrants, size)
	}
	if numByes > size/2 {
		return nil, fmt.Errorf("%w: %d byes for size %d", ErrTooManyByes, numByes, size)
	}
	order := SeedOrder(size)
	byes := make([]int, 0, numByes)
	for _, pos := range order[:numByes] {
		byes = append(byes, Opponent(pos))
	}
	sort.Ints(byes)
	return byes, nil
}

// SeedsCount is 2 up to size 8 and a quarter of the draw above. A draw of
// two has a single first-round match and so a single seed.
func SeedsCount(size int) int {
	if size <= 2 {
		return 1
	}
	if size <= 8 {
		return 2
	}
	return size / 4
}

// SeedEntrant is an entrant as seen by the draw.
type SeedEntrant struct {
	EntryID int
	Rating  int
	Special bool
}

// Draw places entrants into size positions. rng orders equal ratings and the
// unseeded entrants.
func Draw(size int, entrants []SeedEntrant, rng *rand.Rand) ([]models.DrawPosition, error) {
	byes, err := ByePositions(size, len(entrants))
	if err != nil {
		return nil, err
	}

	positions := make([]models.DrawPosition, size)
	for i := range positions {
		positions[i] = models.DrawPosition{Position: i + 1, Source: models.DrawMain}
	}
	for _, pos := range byes {
		positions[pos-1].Source = models.DrawBye
	}

	ranked := append([]SeedEntrant(nil), entrants...)
	rng.Shuffle(len(ranked), func(i, j int) { ranked[i], ranked[j] = ranked[j], ranked[i] })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rating > ranked[j].Rating })

	order := SeedOrder(size)
	seeds := min(SeedsCount(size), len(order), len(ranked))
	ranked = promoteSpecial(ranked, seeds)

	for k := 0; k < seeds; k++ {
		id, seed := ranked[k].EntryID, k+1
		p := &positions[order[k]-1]
		p.EntryID, p.SeedNumber = &id, &seed
	}

	rest := ranked[seeds:]
	rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	next := 0
	for i := range positions {
		p := &positions[i]
		if p.Source == models.DrawBye || p.EntryID != nil {
			continue
		}
		id := rest[next].EntryID
		p.EntryID = &id
		next++
	}
	return positions, nil
}

// promoteSpecial moves the special entrant into the last seed slot when more
// than one seeded entrant has no rating yet.
func promoteSpecial(ranked []SeedEntrant, seeds int) []SeedEntrant {
	if seeds == 0 {
		return ranked
	}
	unrated := 0
	for _, e := range ranked[:seeds] {
		if e.Rating == 0 {
			unrated++
		}
	}
	if unrated <= 1 {
		return ranked
	}
	idx := -1
	for i, e := range ranked {
		if e.Special {
			idx = i
			break
		}
	}
	if idx < 0 || idx == seeds-1 {
		return ranked
	}
	special := ranked[idx]
	out := make([]SeedEntrant, 0, len(ranked))
	out = append(out, ranked[:idx]...)
	out = append(out, ranked[idx+1:]...)
	out = append(out[:seeds-1], append([]SeedEntrant{special}, out[seeds-1:]...)...)
	return out
}

type KnockoutGenerator struct {
	HasThirdPlace bool
}

func NewKnockoutGenerator(hasThirdPlace bool) BracketGenerator {
	return &KnockoutGenerator{HasThirdPlace: hasThirdPlace}
}

func (g *KnockoutGenerator) GetName() string {
	return "Knockout"
}

// GenerateBracket builds the empty match tree for a bracket of
// nextPow2(len(entries)) positions. Seeding fills the first round later.
func (g *KnockoutGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	size, err := BracketSize(len(params.Entries), 1)
	if err != nil {
		return nil, err
	}
	return BuildKnockoutMatches(size, g.HasThirdPlace)
}

// BuildKnockoutMatches creates every match of the bracket. Matches after the
// first round reference their source matches by UID.
func BuildKnockoutMatches(size int, hasThirdPlace bool) ([]*BracketMatch, error) {
	rounds, err := RoundsStructure(size, hasThirdPlace)
	if err != nil {
		return nil, err
	}

	var matches []*BracketMatch
	for _, round := range rounds {
		for order := 1; order <= round.Matches; order++ {
			bm := &BracketMatch{
				UID:          fmt.Sprintf("R%dM%d", round.Index, order),
				Round:        round.Index,
				RoundName:    round.Name,
				OrderInRound: order,
				IsThirdPlace: round.IsThirdPlace,
			}
			switch {
			case round.IsThirdPlace:
				// losers of the semifinals
				semi := round.Index - 2
				s1, s2 := fmt.Sprintf("R%dM1", semi), fmt.Sprintf("R%dM2", semi)
				bm.SourceMatch1UID, bm.SourceMatch2UID = &s1, &s2
				bm.IsPlaceholder = true
			case round.Index > 1:
				s1 := fmt.Sprintf("R%dM%d", round.Index-1, 2*order-1)
				s2 := fmt.Sprintf("R%dM%d", round.Index-1, 2*order)
				bm.SourceMatch1UID, bm.SourceMatch2UID = &s1, &s2
				bm.IsPlaceholder = true
			}
			matches = append(matches, bm)
		}
	}
	return matches, nil
}

// FillFirstRound assigns drawn entries to the first-round matches and marks
// BYE matches.
func FillFirstRound(matches []*BracketMatch, positions []models.DrawPosition) {
	byPos := make(map[int]models.DrawPosition, len(positions))
	for _, p := range positions {
		byPos[p.Position] = p
	}
	for _, bm := range matches {
		if bm.Round != 1 || bm.IsThirdPlace {
			continue
		}
		p1, p2 := byPos[2*bm.OrderInRound-1], byPos[2*bm.OrderInRound]
		if p1.EntryID != nil {
			bm.Side1 = []int{*p1.EntryID}
		}
		if p2.EntryID != nil {
			bm.Side2 = []int{*p2.EntryID}
		}
		bm.IsBye = p1.Source == models.DrawBye || p2.Source == models.DrawBye
	}
}
