package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"creatorhub/internal/feed"
	"creatorhub/internal/media"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "user ID", humanizeParam("userId"))
	assert.Equal(t, "parent comment ID", humanizeParam("parentCommentId"))
	assert.Equal(t, "initial_id", humanizeParam("initial_id"))
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Page: 1, Limit: 10}},
		{"?page=3&limit=25", Pagination{Page: 3, Limit: 25}},
		{"?page=0&limit=-4", Pagination{Page: 1, Limit: 10}},
		{"?limit=5000", Pagination{Page: 1, Limit: feed.MaxLimit}},
		{"?limit=50", Pagination{Page: 1, Limit: 50}},
		{"?limit=51", Pagination{Page: 1, Limit: 50}},
		{"?page=abc", Pagination{Page: 1, Limit: 10}},
	}

	for _, tc := range cases {
		app := fiber.New()
		var got Pagination
		app.Get("/", func(c *fiber.Ctx) error {
			got = parsePagination(c, 10)
			return nil
		})
		_, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tc.query, nil))
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestParseID(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Get("/items/:commentId", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "commentId")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	for _, bad := range []string{"0", "-1", "abc"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/"+bad, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestParseQueryID(t *testing.T) {
	app := fiber.New()
	var (
		got    uint
		gotErr error
	)
	app.Get("/", func(c *fiber.Ctx) error {
		got, gotErr = parseQueryID(c, "initial_id")
		return nil
	})

	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NoError(t, gotErr)
	assert.Zero(t, got)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/?initial_id=7", nil))
	require.NoError(t, err)
	assert.NoError(t, gotErr)
	assert.Equal(t, uint(7), got)

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/?initial_id=seven", nil))
	require.NoError(t, err)
	assert.Error(t, gotErr)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"go", "fiber"}, splitList(" go, ,fiber ,"))
	assert.Nil(t, splitList(""))
}

func TestFormFile(t *testing.T) {
	ts := &testServer{app: fiber.New()}
	var (
		got    *media.File
		gotErr error
	)
	ts.app.Post("/upload", func(c *fiber.Ctx) error {
		got, gotErr = formFile(c, "media")
		return nil
	})

	data := pngBytes(t)
	ts.multipart(t, "/upload", "", map[string]string{"title": "x"},
		[]upload{{field: "media", filename: "a.png", contentType: "image/png", data: data}}, nil)
	require.NoError(t, gotErr)
	require.NotNil(t, got)
	assert.Equal(t, "a.png", got.Filename)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, data, got.Data)

	ts.multipart(t, "/upload", "", map[string]string{"title": "x"}, nil, nil)
	assert.NoError(t, gotErr)
	assert.Nil(t, got)

	_, err := ts.app.Test(httptest.NewRequest(http.MethodPost, "/upload", bytes.NewBufferString("{}")))
	require.NoError(t, err)
	assert.Error(t, gotErr)
}
