package tracking

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for field, content := range files {
		part, err := w.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func setupApp(t *testing.T, svc *Service) *fiber.App {
	app := fiber.New()
	require.NoError(t, NewFeature(svc).Load(app))
	return app
}

func TestHandler_DiffUploads(t *testing.T) {
	app := setupApp(t, NewService(testConfig(), nil, nil, "vet", nil, 0))

	body, contentType := multipartBody(t, map[string]string{
		"old": "ELSUBID,SNAME\n1,Oak\n2,Elm\n",
		"new": "ELSUBID,SNAME\n2,Elm\n3,Pine\n",
	})
	req := httptest.NewRequest("POST", "/tracking/diff?export_date=2024-03-01", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result DiffResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, DiffSummary{Additions: 1, Deletions: 1}, result.Summary)
	require.Len(t, result.Changes, 2)
	assert.Equal(t, "1", result.Changes[0].Identifier)
	assert.Equal(t, "2024-03-01", result.Changes[0].ObservedAt.Format("2006-01-02"))
}

func TestHandler_DiffTablesXLSX(t *testing.T) {
	app := setupApp(t, NewService(testConfig(), setupDB(t), nil, "vet", nil, 0))

	resp, err := app.Test(httptest.NewRequest("POST", "/tracking/diff?format=xlsx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
}

func TestHandler_DiffBadDate(t *testing.T) {
	app := setupApp(t, NewService(testConfig(), nil, nil, "vet", nil, 0))

	resp, err := app.Test(httptest.NewRequest("POST", "/tracking/diff?export_date=03/01/2024", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandler_DiffMalformed(t *testing.T) {
	app := setupApp(t, NewService(testConfig(), nil, nil, "vet", nil, 0))

	body, contentType := multipartBody(t, map[string]string{
		"old": "ELSUBID,SNAME\n1,Oak\n",
		"new": "ELSUBID,SNAME\n,Oak\n",
	})
	req := httptest.NewRequest("POST", "/tracking/diff", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
