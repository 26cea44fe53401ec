package coin

import (
	"testing"

	"github.com/iov-one/quorum/errors"
	"github.com/iov-one/quorum/quorumtest/assert"
)

func TestCoinsAddSubtract(t *testing.T) {
	cs, err := CombineCoins(
		NewCoin(1, 0, "IOV"),
		NewCoin(2, 0, "ETH"),
		NewCoin(3, 0, "IOV"),
	)
	assert.Nil(t, err)
	assert.Nil(t, cs.Validate())
	assert.Equal(t, 2, len(cs))
	assert.Equal(t, NewCoin(2, 0, "ETH"), *cs[0])
	assert.Equal(t, NewCoin(4, 0, "IOV"), cs.Get("IOV"))

	if !cs.Contains(NewCoin(4, 0, "IOV")) {
		t.Fatal("must contain all IOV")
	}
	if cs.Contains(NewCoin(0, 1, "BTC")) {
		t.Fatal("must not contain BTC")
	}

	_, err = cs.Subtract(NewCoin(4, 1, "IOV"))
	assert.IsErr(t, errors.ErrInsufficientAmount, err)

	rest, err := cs.Subtract(NewCoin(4, 0, "IOV"))
	assert.Nil(t, err)
	assert.Equal(t, 1, len(rest))
	assert.Equal(t, Coin{Ticker: "IOV"}, rest.Get("IOV"))

	// Original set is not modified.
	assert.Equal(t, NewCoin(4, 0, "IOV"), cs.Get("IOV"))

	same, err := cs.Add(Coin{Ticker: "IOV"})
	assert.Nil(t, err)
	if !same.Equals(cs) {
		t.Fatal("adding zero changed the set")
	}
}

func TestCoinsValidate(t *testing.T) {
	cases := map[string]struct {
		cs      Coins
		wantErr *errors.Error
	}{
		"empty":      {cs: nil},
		"sorted":     {cs: Coins{coinp(1, 0, "ABC"), coinp(1, 0, "DEF")}},
		"not sorted": {cs: Coins{coinp(1, 0, "DEF"), coinp(1, 0, "ABC")}, wantErr: errors.ErrCurrency},
		"duplicate":  {cs: Coins{coinp(1, 0, "ABC"), coinp(2, 0, "ABC")}, wantErr: errors.ErrCurrency},
		"zero":       {cs: Coins{coinp(0, 0, "ABC")}, wantErr: errors.ErrCurrency},
		"nil coin":   {cs: Coins{nil}, wantErr: errors.ErrEmpty},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.cs.Validate()
			if tc.wantErr == nil {
				assert.Nil(t, err)
				return
			}
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}

func coinp(whole, fractional int64, ticker string) *Coin {
	c := NewCoin(whole, fractional, ticker)
	return &c
}
