package coin

import (
	"sort"
	"strings"

	"github.com/iov-one/quorum/errors"
)

// Coins is a set of coins of different currencies. A normalized set holds
// at most one non zero coin per ticker, sorted by ticker.
type Coins []*Coin

// CombineCoins creates a Coins containing all given coins.
// It will sort them and combine duplicates to produce
// a normalized array.
func CombineCoins(cs ...Coin) (Coins, error) {
	var s Coins
	var err error
	for _, c := range cs {
		s, err = s.Add(c)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add modifies the set, to increase the holdings by c. A zero
// coin leaves the set unchanged.
func (cs Coins) Add(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs, nil
	}
	i, exist := cs.findCoin(c.Ticker)
	if !exist {
		res := make(Coins, 0, len(cs)+1)
		res = append(res, cs[:i]...)
		res = append(res, c.Clone())
		res = append(res, cs[i:]...)
		return res, nil
	}

	sum, err := cs[i].Add(c)
	if err != nil {
		return nil, err
	}
	res := cs.Clone()
	if sum.IsZero() {
		return append(res[:i], res[i+1:]...), nil
	}
	res[i] = &sum
	return res, nil
}

// Subtract decreases the holdings by c. It is an error to subtract more
// than the set holds of the given currency.
func (cs Coins) Subtract(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs, nil
	}
	have := cs.Get(c.Ticker)
	if !have.IsGTE(c) {
		return nil, errors.Wrapf(errors.ErrInsufficientAmount, "have %s, need %s", have, c)
	}
	return cs.Add(c.Negative())
}

// Get returns the coin held in given currency. A zero coin of that
// currency is returned when nothing is held.
func (cs Coins) Get(ticker string) Coin {
	if i, ok := cs.findCoin(ticker); ok {
		return *cs[i]
	}
	return Coin{Ticker: ticker}
}

// Contains returns true if there is at least that much
// coin in the set. If it returns true, then:
//
//	s.Subtract(c) will return no error
func (cs Coins) Contains(c Coin) bool {
	return cs.Get(c.Ticker).IsGTE(c)
}

// IsEmpty returns if nothing is in the set
func (cs Coins) IsEmpty() bool {
	return len(cs) == 0
}

// Equals returns true if all coins are equal
func (cs Coins) Equals(other Coins) bool {
	if len(cs) != len(other) {
		return false
	}
	for i := range cs {
		if !cs[i].Equals(*other[i]) {
			return false
		}
	}
	return true
}

// Clone returns a copy that can be safely modified
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	res := make(Coins, len(cs))
	for i, c := range cs {
		res[i] = c.Clone()
	}
	return res
}

// Validate requires that all coins are in alphabetical
// order and that each coin is valid in its own right
//
// Zero amounts should not be present
func (cs Coins) Validate() error {
	var last string
	for _, c := range cs {
		if c == nil {
			return errors.Wrap(errors.ErrEmpty, "nil coin")
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if c.Ticker <= last {
			return errors.Wrap(errors.ErrCurrency, "not sorted or not unique")
		}
		if c.IsZero() {
			return errors.Wrap(errors.ErrCurrency, "zero coins")
		}
		last = c.Ticker
	}
	return nil
}

func (cs Coins) String() string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

// findCoin returns the position of the coin of given currency, or the
// position it would be inserted at together with false.
func (cs Coins) findCoin(ticker string) (int, bool) {
	i := sort.Search(len(cs), func(i int) bool {
		return cs[i].Ticker >= ticker
	})
	return i, i < len(cs) && cs[i].Ticker == ticker
}
