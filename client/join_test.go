package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmpharma/pharmacy-api/entities"
)

func TestIndexByID(t *testing.T) {
	list := []*entities.Customers{
		{ID: int64Ptr(1), Name: strPtr("Alice")},
		{ID: int64Ptr(2), Name: strPtr("Bob")},
		{Name: strPtr("unsaved")},
	}

	index := IndexByID(list)
	require.Len(t, index, 2)
	assert.Equal(t, "Alice", *index[1].Name)
	assert.Equal(t, "Bob", *index[2].Name)
}

func TestResolve(t *testing.T) {
	index := IndexByID([]*entities.Customers{{ID: int64Ptr(1), Name: strPtr("Alice")}})

	rec, ok := Resolve(int64Ptr(1), index)
	require.True(t, ok)
	assert.Equal(t, "Alice", *rec.Name)

	_, ok = Resolve(int64Ptr(9), index)
	assert.False(t, ok)

	_, ok = Resolve(nil, index)
	assert.False(t, ok)
}

func TestResolveSaleCustomer(t *testing.T) {
	customers := IndexByID([]*entities.Customers{
		{ID: int64Ptr(3), Name: strPtr("Carol")},
	})
	sale := &entities.Sales{ID: int64Ptr(1), Customers: &entities.Customers{ID: int64Ptr(3)}}

	rec, ok := Resolve(sale.Customers.ID, customers)
	require.True(t, ok)
	assert.Equal(t, "Carol", *rec.Name)
}
