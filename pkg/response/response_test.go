package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	resp := Success(http.StatusOK, map[string]int{"x": 1})
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, resp.Meta)
	assert.Empty(t, resp.Error)
}

func TestPaged(t *testing.T) {
	resp := Paged(http.StatusOK, []int{1, 2, 3}, 2, 20, 41)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 20, resp.Meta.Limit)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.Pages)
}

func TestError(t *testing.T) {
	resp := Error(http.StatusNotFound, "not found")
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "not found", resp.Error)
	assert.Nil(t, resp.Data)
}
