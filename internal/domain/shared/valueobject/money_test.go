package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)
		assert.Error(t, err)
	})
}

func TestZero(t *testing.T) {
	m := Zero(EUR)
	assert.True(t, m.IsZero())
	assert.Equal(t, EUR, m.Currency())

	usd := ZeroUSD()
	assert.True(t, usd.IsZero())
	assert.Equal(t, USD, usd.Currency())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		m1 := NewMoneyUSD(decimal.NewFromFloat(100.50))
		m2 := NewMoneyUSD(decimal.NewFromFloat(50.25))
		result, err := m1.Add(m2)
		require.NoError(t, err)
		assert.True(t, result.Amount().Equal(decimal.NewFromFloat(150.75)))
	})

	t.Run("fails for different currencies", func(t *testing.T) {
		m1, _ := NewMoney(decimal.NewFromInt(100), USD)
		m2, _ := NewMoney(decimal.NewFromInt(50), EUR)
		_, err := m1.Add(m2)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "different currencies")
	})
}

func TestMoneySubtract(t *testing.T) {
	m1 := NewMoneyUSD(decimal.NewFromInt(100))
	m2 := NewMoneyUSD(decimal.NewFromFloat(30.50))
	result, err := m1.Subtract(m2)
	require.NoError(t, err)
	assert.True(t, result.Amount().Equal(decimal.NewFromFloat(69.50)))
	assert.False(t, result.IsNegative())
}

func TestMoneyMultiply(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(10.00))
	result := m.Multiply(decimal.NewFromInt(3))
	assert.True(t, result.Amount().Equal(decimal.NewFromInt(30)))
}

func TestMoneyComparisons(t *testing.T) {
	small := NewMoneyUSD(decimal.NewFromInt(10))
	big := NewMoneyUSD(decimal.NewFromInt(20))

	gt, err := big.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	lt, err := small.LessThan(big)
	require.NoError(t, err)
	assert.True(t, lt)

	assert.True(t, small.Equals(NewMoneyUSD(decimal.NewFromInt(10))))

	other, _ := NewMoney(decimal.NewFromInt(10), EUR)
	_, err = small.GreaterThan(other)
	assert.Error(t, err)
}

func TestMoneyStringFixed(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(1234.5))
	assert.Equal(t, "1234.50", m.StringFixed(2))
	assert.Equal(t, "1234.50 USD", m.String())
}

func TestMoneyPercentageAndDiscount(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromInt(200))

	pct := m.CalculatePercentage(decimal.NewFromInt(10))
	assert.True(t, pct.Amount().Equal(decimal.NewFromInt(20)))

	discounted := m.ApplyDiscount(decimal.NewFromInt(25))
	assert.True(t, discounted.Amount().Equal(decimal.NewFromInt(150)))
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(42.75))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"42.75","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string value", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("55.25"))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(55.25)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("nil scans to zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(3.14))
	})
}
