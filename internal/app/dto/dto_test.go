package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/mrops-br/product-catalog-api/internal/domain"
)

func TestToProductResponse(t *testing.T) {
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	p := domain.NewProduct("Lamp", decimal.RequireFromString("19.99"), 4, created)
	p.MarkCreated(created, "ivy")

	body, err := json.Marshal(ToProductResponse(p))
	require.NoError(t, err)

	doc := gjson.ParseBytes(body)
	assert.Equal(t, p.GetID().String(), doc.Get("id").String())
	assert.Equal(t, "Lamp", doc.Get("name").String())
	assert.Equal(t, gjson.Number, doc.Get("price").Type)
	assert.Equal(t, "19.99", doc.Get("price").Raw)
	assert.Equal(t, int64(4), doc.Get("stock").Int())
	assert.False(t, doc.Get("isDeleted").Bool())
	assert.Equal(t, "2025-02-03T04:05:06Z", doc.Get("createDate").String())
	assert.Equal(t, "ivy", doc.Get("createdBy").String())
	assert.Equal(t, gjson.Null, doc.Get("updateDate").Type)
}

func TestCreateProductRequest_AcceptsNumericPrice(t *testing.T) {
	var req CreateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Pen","price":1.25,"stock":3}`), &req))

	assert.True(t, decimal.RequireFromString("1.25").Equal(req.Price))
	assert.Equal(t, 3, req.Stock)
}

func TestAPIResponse(t *testing.T) {
	body, err := json.Marshal(Ok("abc", "Product created successfully"))
	require.NoError(t, err)
	doc := gjson.ParseBytes(body)
	assert.True(t, doc.Get("success").Bool())
	assert.Equal(t, "abc", doc.Get("data").String())
	assert.Equal(t, "Product created successfully", doc.Get("message").String())
	assert.Equal(t, gjson.Null, doc.Get("errors").Type)

	body, err = json.Marshal(Fail("Validation failed", map[string][]string{"name": {"product name is required"}}))
	require.NoError(t, err)
	doc = gjson.ParseBytes(body)
	assert.False(t, doc.Get("success").Bool())
	assert.Equal(t, gjson.Null, doc.Get("data").Type)
	assert.Equal(t, "product name is required", doc.Get("errors.name.0").String())
}
