package pagination

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	p := New(0, 0, 0)
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, p)

	p = New(-3, 500, 20)
	assert.Equal(t, Params{Page: 1, Limit: MaxLimit}, p)

	p = New(2, 0, 20)
	assert.Equal(t, Params{Page: 2, Limit: 20}, p)
}

func TestMeta(t *testing.T) {
	p := New(2, 10, 0)
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, Meta{Total: 25, Page: 2, Pages: 3}, p.Meta(25))
	assert.Equal(t, Meta{Total: 0, Page: 2, Pages: 0}, p.Meta(0))
}

func TestWindow(t *testing.T) {
	p := New(3, 10, 0)
	start, end := p.Window(25)
	assert.Equal(t, 20, start)
	assert.Equal(t, 25, end)

	start, end = p.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/appointments?page=3&limit=5", nil)

	assert.Equal(t, Params{Page: 3, Limit: 5}, FromContext(c, 10))
}

func TestHugePageKeepsOffsetNonNegative(t *testing.T) {
	p := New(math.MaxInt, 10, 10)
	assert.GreaterOrEqual(t, p.Offset(), 0)
	assert.LessOrEqual(t, p.Offset(), math.MaxInt32)

	start, end := p.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)

	raw := Params{Page: math.MaxInt, Limit: MaxLimit}
	assert.Equal(t, math.MaxInt32, raw.Offset())
	assert.Equal(t, 0, Params{Page: -4, Limit: 10}.Offset())
}
