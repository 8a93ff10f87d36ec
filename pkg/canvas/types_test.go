package canvas

import (
	"encoding/json"
	"testing"

	"github.com/canvasgrab/canvasgrab/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFileRecord(t *testing.T) {
	raw := json.RawMessage(`{
		"id": 42,
		"display_name": "slides.pdf",
		"url": "https://files.test/42",
		"size": 1024,
		"content-type": "application/pdf"
	}`)

	rec, err := DecodeFileRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, FileRecord{
		ID:          42,
		DisplayName: "slides.pdf",
		URL:         "https://files.test/42",
		Size:        1024,
		ContentType: "application/pdf",
	}, rec)
}

func TestDecodeFileRecordWithoutID(t *testing.T) {
	_, err := DecodeFileRecord(json.RawMessage(`{"display_name": "slides.pdf"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMalformedResponse)
}

func TestDecodeModuleWithoutID(t *testing.T) {
	_, err := DecodeModule(json.RawMessage(`{"name": "Week 1"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMalformedResponse)
}
