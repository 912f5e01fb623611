package parse_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beynar/relquery/parse"
)

func TestRecord_ScalarConversions(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	row := parse.Row{
		"id":        "P1",
		"title":     "Hello",
		"authorId":  "A1",
		"createdAt": "2026-01-02T15:04:05Z",
		"views":     "9007199254740993",
		"rating":    4.5,
		"metadata":  `{"featured":true}`,
		"thumbnail": []byte{0xDE, 0xAD},
		"tagIds":    `["T1","T2"]`,
	}

	out, err := parse.Record(post, row)
	require.NoError(t, err)

	assert.Equal(t, "Hello", out["title"])

	wantTime, _ := time.Parse(time.RFC3339Nano, "2026-01-02T15:04:05Z")
	assert.Equal(t, wantTime, out["createdAt"])

	wantBig, _ := new(big.Int).SetString("9007199254740993", 10)
	assert.Equal(t, wantBig, out["views"])

	assert.True(t, decimal.NewFromFloat(4.5).Equal(out["rating"].(decimal.Decimal)))

	assert.Equal(t, map[string]any{"featured": true}, out["metadata"])
	assert.Equal(t, []byte{0xDE, 0xAD}, out["thumbnail"])
	assert.Equal(t, []any{"T1", "T2"}, out["tagIds"])
}

func TestRecord_NullableScalarPassesThroughNil(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	row := parse.Row{"thumbnail": nil}
	out, err := parse.Record(post, row)
	require.NoError(t, err)
	assert.Nil(t, out["thumbnail"])
}

func TestRecord_ToOneRelationRecurses(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	row := parse.Row{
		"id":     "P1",
		"author": `{"id":"A1","name":"Ada"}`,
	}
	out, err := parse.Record(post, row)
	require.NoError(t, err)
	author, ok := out["author"].(parse.Row)
	require.True(t, ok)
	assert.Equal(t, "Ada", author["name"])
}

func TestRecord_ToOneRelationNull(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	row := parse.Row{"id": "P1", "author": nil}
	out, err := parse.Record(post, row)
	require.NoError(t, err)
	assert.Nil(t, out["author"])
}

func TestRecord_ToManyRelationRecurses(t *testing.T) {
	reg := newBlogRegistry()
	author := reg.MustModel("Author")

	row := parse.Row{
		"id":    "A1",
		"posts": `[{"id":"P1","title":"One"},{"id":"P2","title":"Two"}]`,
	}
	out, err := parse.Record(author, row)
	require.NoError(t, err)
	posts, ok := out["posts"].([]parse.Row)
	require.True(t, ok)
	require.Len(t, posts, 2)
	assert.Equal(t, "One", posts[0]["title"])
	assert.Equal(t, "Two", posts[1]["title"])
}

func TestRecord_ToManyRelationEmptyArray(t *testing.T) {
	reg := newBlogRegistry()
	author := reg.MustModel("Author")

	row := parse.Row{"id": "A1", "posts": `[]`}
	out, err := parse.Record(author, row)
	require.NoError(t, err)
	posts, ok := out["posts"].([]parse.Row)
	require.True(t, ok)
	assert.Empty(t, posts)
}

func TestRecord_UnknownKeyGenericParse(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	row := parse.Row{
		"id":          "P1",
		"computedTag": `{"x":1}`,
		"rawLabel":    "not json",
	}
	out, err := parse.Record(post, row)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": float64(1)}, out["computedTag"])
	assert.Equal(t, "not json", out["rawLabel"])
}

func TestRecords_PreservesOrder(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	rows := []parse.Row{
		{"id": "P1"},
		{"id": "P2"},
	}
	out, err := parse.Records(post, rows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "P1", out[0]["id"])
	assert.Equal(t, "P2", out[1]["id"])
}

func TestCount_PlainCountStar(t *testing.T) {
	out, err := parse.Count(parse.Row{"count": int64(42)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), out)
}

func TestCount_Breakdown(t *testing.T) {
	out, err := parse.Count(parse.Row{"_all": int64(10), "title": int64(7)})
	require.NoError(t, err)
	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(10), m["_all"])
	assert.Equal(t, int64(7), m["title"])
}

func TestBatchResult(t *testing.T) {
	assert.Equal(t, parse.Row{"count": int64(3)}, parse.BatchResult(3))
}

func TestAggregate_DecodesBucketObject(t *testing.T) {
	row := parse.Row{
		"_count": `{"id":5}`,
		"_avg":   `{"rating":3.5}`,
	}
	out, err := parse.Aggregate(row)
	require.NoError(t, err)
	assert.Equal(t, parse.Row{"id": float64(5)}, out["_count"])
	assert.Equal(t, parse.Row{"rating": float64(3.5)}, out["_avg"])
}

func TestAggregate_BareCountTrue(t *testing.T) {
	out, err := parse.Aggregate(parse.Row{"_count": int64(9)})
	require.NoError(t, err)
	assert.Equal(t, int64(9), out["_count"])
}

func TestGroupByRow_MixesByFieldsAndBuckets(t *testing.T) {
	reg := newBlogRegistry()
	post := reg.MustModel("Post")

	row := parse.Row{
		"authorId": "A1",
		"_count":   `{"id":3}`,
	}
	out, err := parse.GroupByRow(post, row)
	require.NoError(t, err)
	assert.Equal(t, "A1", out["authorId"])
	assert.Equal(t, parse.Row{"id": float64(3)}, out["_count"])
}
