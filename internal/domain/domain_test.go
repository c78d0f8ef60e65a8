package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPageRequest(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Limit: 10}, NewPageRequest(0, 0, 10))
	assert.Equal(t, PageRequest{Page: 3, Limit: 12}, NewPageRequest(3, 12, 10))
	assert.Equal(t, PageRequest{Page: 1, Limit: 100}, NewPageRequest(-2, 500, 10))
	assert.Equal(t, int64(24), NewPageRequest(3, 12, 10).Skip())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(PageRequest{Page: 2, Limit: 10}, 21)
	assert.Equal(t, Pagination{Page: 2, Limit: 10, Total: 21, Pages: 3}, p)
	assert.Equal(t, int64(0), NewPagination(PageRequest{Page: 1, Limit: 10}, 0).Pages)
}

func TestCarMissingFields(t *testing.T) {
	c := &Car{Brand: "BMW", Model: "X5", Year: 2019, VIN: "WBA123"}
	missing := c.MissingFields()
	assert.NotContains(t, missing, "brand")
	assert.NotContains(t, missing, "vin")
	assert.Contains(t, missing, "mileage")
	assert.Contains(t, missing, "description")
}

func TestCarPatchApply(t *testing.T) {
	c := &Car{Brand: "BMW", Model: "X5", Price: 100, Photos: []string{"a"}}
	brand := "Audi"
	status := StatusPublished
	CarPatch{Brand: &brand, Status: &status}.Apply(c)

	assert.Equal(t, "Audi", c.Brand)
	assert.Equal(t, "X5", c.Model)
	assert.Equal(t, 100.0, c.Price)
	assert.Equal(t, []string{"a"}, c.Photos)
	assert.Equal(t, StatusPublished, c.Status)
}

func TestPartPatchApply(t *testing.T) {
	p := &Part{Name: "Brake pad", Condition: PartNew}
	cond := PartUsed
	from := 2010
	PartPatch{Condition: &cond, YearFrom: &from, Photos: []string{}}.Apply(p)

	assert.Equal(t, PartUsed, p.Condition)
	assert.Equal(t, 2010, *p.YearFrom)
	assert.Empty(t, p.Photos)
	assert.Equal(t, "Brake pad", p.Name)
}

func TestStatusAndConditionValid(t *testing.T) {
	assert.True(t, StatusSold.Valid())
	assert.False(t, ListingStatus("archived").Valid())
	assert.True(t, PartRefurbished.Valid())
	assert.False(t, PartCondition("broken").Valid())
}
