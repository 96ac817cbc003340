package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/bidcrawl/internal/settings"
)

const validElements = `{
	"title": {"xpath": ".//a"},
	"detail_url": {"xpath": ".//a", "target": "href"},
	"posted_date": {"xpath": "./td[3]", "callback": "date-normalize"}
}`

func TestParseElements_PreservesDocumentOrder(t *testing.T) {
	m, err := settings.ParseElements(validElements)
	require.NoError(t, err)
	require.Equal(t, 3, m.Len())

	rules := m.Rules()
	assert.Equal(t, "title", rules[0].Key)
	assert.Equal(t, "detail_url", rules[1].Key)
	assert.Equal(t, "posted_date", rules[2].Key)

	rule, ok := m.Get("detail_url")
	require.True(t, ok)
	assert.Equal(t, "href", rule.Target)
}

func TestParseElements_SeparatorForm(t *testing.T) {
	raw := `{
		"title": ".//a",
		"detail_url": ".//a|-href",
		"posted_date": "./td[3]|-|-date-normalize"
	}`

	m, err := settings.ParseElements(raw)
	require.NoError(t, err)
	require.NoError(t, m.RequireListFields())

	rule, _ := m.Get("detail_url")
	assert.Equal(t, "href", rule.Target)
	assert.Empty(t, rule.Callback)

	rule, _ = m.Get("posted_date")
	assert.Empty(t, rule.Target)
	assert.Equal(t, "date-normalize", rule.Callback)
}

func TestParseElements_MalformedJSON(t *testing.T) {
	_, err := settings.ParseElements(`{"title": {`)
	require.Error(t, err)
	assert.ErrorIs(t, err, settings.ErrInvalidElements)
}

func TestParseElements_NotAnObject(t *testing.T) {
	_, err := settings.ParseElements(`["title"]`)
	assert.ErrorIs(t, err, settings.ErrInvalidElements)
}

func TestParseElements_UnknownCallbackRejected(t *testing.T) {
	raw := `{"title": {"xpath": ".//a", "callback": "eval-js"}}`

	_, err := settings.ParseElements(raw)
	assert.ErrorIs(t, err, settings.ErrUnknownCallback)
}

func TestParseElements_BadXPathRejected(t *testing.T) {
	raw := `{"title": {"xpath": "///[[["}}`

	_, err := settings.ParseElements(raw)
	require.Error(t, err)
}

func TestParseElements_EmptyXPathSkipped(t *testing.T) {
	raw := `{"title": {"xpath": ".//a"}, "posted_by": {"xpath": ""}}`

	m, err := settings.ParseElements(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.False(t, m.Has("posted_by"))
}

func TestRequireListFields_MissingDate(t *testing.T) {
	raw := `{"title": {"xpath": ".//a"}, "detail_url": {"xpath": ".//a", "target": "href"}}`

	m, err := settings.ParseElements(raw)
	require.NoError(t, err)

	err = m.RequireListFields()
	assert.ErrorIs(t, err, settings.ErrMissingField)
}
