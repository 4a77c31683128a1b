package usecase

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/channelpass/internal/domain/errors"
	"github.com/polkiloo/channelpass/internal/domain/model"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	plans := c.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, []string{"1", "3", "6"}, []string{plans[0].ID, plans[1].ID, plans[2].ID})

	p, err := c.Lookup("6")
	require.NoError(t, err)
	assert.Equal(t, 6, p.DurationMonths)
	assert.True(t, decimal.NewFromInt(50000).Equal(p.Price))

	p, err = c.Lookup("3")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25000).Equal(p.Price))
}

func TestCatalogLookupUnknownPlan(t *testing.T) {
	_, err := DefaultCatalog().Lookup("12")
	require.ErrorIs(t, err, domainErrors.ErrPlanNotFound)
	require.ErrorIs(t, err, domainErrors.ErrValidation)
}

func TestCatalogPlansReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	plans := c.Plans()
	plans[0].DurationMonths = 99

	p, err := c.Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.DurationMonths)
	assert.Equal(t, 1, c.Plans()[0].DurationMonths)
}

func TestNewCatalogValidation(t *testing.T) {
	price := decimal.NewFromInt(100)
	cases := map[string][]model.Plan{
		"empty id":       {{ID: "", DurationMonths: 1, Price: price}},
		"zero duration":  {{ID: "a", DurationMonths: 0, Price: price}},
		"negative price": {{ID: "a", DurationMonths: 1, Price: decimal.NewFromInt(-1)}},
		"duplicate": {
			{ID: "a", DurationMonths: 1, Price: price},
			{ID: "a", DurationMonths: 2, Price: price},
		},
	}
	for name, plans := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCatalog(plans...)
			assert.Error(t, err)
		})
	}
}
