package game

import (
	"math/bits"
	"sort"
	"strconv"
	"strings"

	"github.com/lox/threethirteen/internal/deck"
)

// The evaluator answers two questions about a hand: can it partition
// completely into valid combinations (the go-out test), and if not, what is
// the cheapest partition (the penalty for scoring). A combination is either
// a set (three or more cards of one rank) or a run (three or more cards of
// one suit in consecutive ascending ranks, aces low only). Wild cards
// substitute for any card in either.
//
// Hands never exceed thirteen cards, so a memoised exhaustive search over the
// first remaining natural card is both correct and fast: that card is either
// left unmatched, consumed by a set of its rank, or consumed by a run of its
// suit. Leftover wilds attach to any combination already formed, or make an
// all-wild set of three or more.

// CanGoOut reports whether the cards partition completely into valid sets
// and runs with no card left over.
func CanGoOut(cards []deck.Card, wild deck.Rank) bool {
	penalty, _ := MinPenalty(cards, wild)
	return penalty == 0
}

// MinPenalty finds the partition of the cards that minimises penalty points
// and returns the penalty total together with the unmatched cards. Unmatched
// wilds count by their rank's face value.
func MinPenalty(cards []deck.Card, wild deck.Rank) (int, []deck.Card) {
	var naturals, wilds []deck.Card
	for _, c := range cards {
		if c.IsWild(wild) {
			wilds = append(wilds, c)
		} else {
			naturals = append(naturals, c)
		}
	}
	sort.Slice(naturals, func(i, j int) bool {
		a, b := naturals[i], naturals[j]
		if a.Suit != b.Suit {
			return a.Suit < b.Suit
		}
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		return a.ID < b.ID
	})

	s := &solver{wildRank: wild, wilds: wilds, memo: make(map[string]solution)}
	sol := s.solve(naturals, len(wilds), false)
	return sol.penalty, sol.unmatched
}

type solution struct {
	penalty   int
	unmatched []deck.Card
}

type solver struct {
	wildRank deck.Rank
	wilds    []deck.Card
	memo     map[string]solution
}

// solve returns the minimum penalty over all partitions of the remaining
// naturals plus the given number of wilds. grouped records whether at least
// one combination has been formed; leftover wilds can always extend one.
func (s *solver) solve(naturals []deck.Card, wilds int, grouped bool) solution {
	if len(naturals) == 0 {
		if wilds == 0 || grouped || wilds >= 3 {
			return solution{}
		}
		// One or two wilds with no combination to join
		return solution{
			penalty:   wilds * s.wildRank.Points(),
			unmatched: append([]deck.Card(nil), s.wilds[:wilds]...),
		}
	}

	key := stateKey(naturals, wilds, grouped)
	if sol, ok := s.memo[key]; ok {
		// States are keyed by the (suit, rank) multiset, so with duplicate
		// cards from multiple decks a hit may carry a twin's ID from another
		// branch. Re-draw the leftovers from the live subset so they stay an
		// exact subset of it.
		return solution{penalty: sol.penalty, unmatched: s.rebind(naturals, sol.unmatched)}
	}

	first := naturals[0]

	// Leave the first card unmatched and pay its penalty
	rest := s.solve(naturals[1:], wilds, grouped)
	best := solution{
		penalty:   rest.penalty + first.Points(),
		unmatched: append([]deck.Card{first}, rest.unmatched...),
	}

	// Consume the first card in a set of its rank. Which same-rank cards
	// join it matters because the others may be needed for runs, so every
	// subset is tried.
	var sameRank []int
	for i := 1; i < len(naturals); i++ {
		if naturals[i].Rank == first.Rank {
			sameRank = append(sameRank, i)
		}
	}
	for mask := 0; mask < 1<<len(sameRank); mask++ {
		k := 1 + bits.OnesCount(uint(mask))
		need := 0
		if k < 3 {
			need = 3 - k
		}
		if need > wilds {
			continue
		}
		used := []int{0}
		for bit, idx := range sameRank {
			if mask&(1<<bit) != 0 {
				used = append(used, idx)
			}
		}
		remaining := removeIndices(naturals, used)
		if sol := s.solve(remaining, wilds-need, true); sol.penalty < best.penalty {
			best = sol
		}
	}

	// Consume the first card in a run of its suit. The run is a window of
	// consecutive ranks containing the first card's rank; every other slot
	// is filled by a natural of that suit or a wild. A natural may be
	// skipped in favour of a wild so it stays available for another
	// combination.
	for lo := maxRank(deck.Ace, first.Rank-12); lo <= first.Rank; lo++ {
		for hi := maxRank(first.Rank, lo+2); hi <= deck.King; hi++ {
			if int(hi-lo)+1 < 3 {
				continue
			}
			s.fillRun(naturals, wilds, first, lo, hi, lo, nil, 0, &best)
		}
	}

	s.memo[key] = best
	return best
}

// fillRun walks the window [lo,hi] assigning each rank slot either an unused
// natural of the run's suit or a wild, and solves the remainder at the end.
func (s *solver) fillRun(naturals []deck.Card, wilds int, first deck.Card, lo, hi, next deck.Rank, used []int, wildsUsed int, best *solution) {
	if wildsUsed > wilds {
		return
	}
	if next > hi {
		remaining := removeIndices(naturals, used)
		if sol := s.solve(remaining, wilds-wildsUsed, true); sol.penalty < best.penalty {
			*best = sol
		}
		return
	}
	if next == first.Rank {
		s.fillRun(naturals, wilds, first, lo, hi, next+1, appendIdx(used, 0), wildsUsed, best)
		return
	}
	// A natural of the run's suit at this rank, if one remains unused
	if idx := unusedAt(naturals, first.Suit, next, used); idx >= 0 {
		s.fillRun(naturals, wilds, first, lo, hi, next+1, appendIdx(used, idx), wildsUsed, best)
	}
	// A wild standing in for this rank
	s.fillRun(naturals, wilds, first, lo, hi, next+1, used, wildsUsed+1, best)
}

// rebind maps a memoised leftover set onto the caller's actual cards,
// matching naturals by suit and rank. The state key guarantees the multisets
// agree, so every leftover finds a distinct card. Wild leftovers are kept:
// they are always a prefix of the solver's wilds and never collide with
// naturals.
func (s *solver) rebind(naturals, unmatched []deck.Card) []deck.Card {
	if len(unmatched) == 0 {
		return nil
	}
	out := make([]deck.Card, 0, len(unmatched))
	taken := make([]bool, len(naturals))
	for _, u := range unmatched {
		if u.IsWild(s.wildRank) {
			out = append(out, u)
			continue
		}
		for i, c := range naturals {
			if !taken[i] && c.Suit == u.Suit && c.Rank == u.Rank {
				taken[i] = true
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// unusedAt returns the index of an unused natural with the given suit and
// rank, or -1.
func unusedAt(naturals []deck.Card, suit deck.Suit, rank deck.Rank, used []int) int {
	for i, c := range naturals {
		if c.Suit != suit || c.Rank != rank {
			continue
		}
		inUse := false
		for _, u := range used {
			if u == i {
				inUse = true
				break
			}
		}
		if !inUse {
			return i
		}
	}
	return -1
}

// appendIdx appends without sharing backing arrays between search branches
func appendIdx(used []int, idx int) []int {
	out := make([]int, len(used), len(used)+1)
	copy(out, used)
	return append(out, idx)
}

func removeIndices(naturals []deck.Card, used []int) []deck.Card {
	out := make([]deck.Card, 0, len(naturals)-len(used))
	for i, c := range naturals {
		skip := false
		for _, u := range used {
			if u == i {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}

func stateKey(naturals []deck.Card, wilds int, grouped bool) string {
	var b strings.Builder
	b.Grow(len(naturals) + 8)
	for _, c := range naturals {
		b.WriteByte(byte(int(c.Suit)<<4 | int(c.Rank)))
	}
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(wilds))
	if grouped {
		b.WriteByte('g')
	}
	return b.String()
}

func maxRank(a, b deck.Rank) deck.Rank {
	if a > b {
		return a
	}
	return b
}
