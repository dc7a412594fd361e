package storage

import (
	"testing"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecordFilter(t *testing.T) {
	owner := primitive.NewObjectID()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name string
		q    records.Query
		want bson.D
	}{
		{
			name: "owner only",
			q:    records.NewQuery(owner.Hex(), models.KindIncome),
			want: bson.D{{Key: "userId", Value: owner}},
		},
		{
			name: "start only",
			q:    records.NewQuery(owner.Hex(), models.KindIncome).WithRange(&start, nil),
			want: bson.D{
				{Key: "userId", Value: owner},
				{Key: "date", Value: bson.D{{Key: "$gte", Value: start}}},
			},
		},
		{
			name: "range and category",
			q:    records.NewQuery(owner.Hex(), models.KindExpense).WithRange(&start, &end).WithCategory("Bills"),
			want: bson.D{
				{Key: "userId", Value: owner},
				{Key: "date", Value: bson.D{{Key: "$gte", Value: start}, {Key: "$lte", Value: end}}},
				{Key: "category", Value: "Bills"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := recordFilter(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordFilter_BadOwner(t *testing.T) {
	_, err := recordFilter(records.NewQuery("not-hex", models.KindIncome))
	assert.Error(t, err)
}

func TestOwnedFilter(t *testing.T) {
	owner, id := primitive.NewObjectID(), primitive.NewObjectID()

	f, ok := ownedFilter(owner.Hex(), id.Hex())
	require.True(t, ok)
	assert.Equal(t, bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: owner}}, f)

	_, ok = ownedFilter(owner.Hex(), "123")
	assert.False(t, ok)
	_, ok = ownedFilter("", id.Hex())
	assert.False(t, ok)
}
