package analyzer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_CleanJSON(t *testing.T) {
	content := `{"cleaned_title": "Senior Go Developer", "cleaned_text": "Remote position, competitive pay.", "tags": ["golang", "remote"]}`

	e, ok := parseResponse(content, "orig title", "orig body")

	require.True(t, ok)
	assert.Equal(t, "Senior Go Developer", e.CleanedTitle)
	assert.Equal(t, "Remote position, competitive pay.", e.CleanedText)
	assert.Equal(t, []string{"golang", "remote"}, e.Tags)
}

func TestParseResponse_CodeFences(t *testing.T) {
	content := "```json\n{\"cleaned_title\": \"Title\", \"cleaned_text\": \"Text\", \"tags\": [\"a\"]}\n```"

	e, ok := parseResponse(content, "orig", "orig")

	require.True(t, ok)
	assert.Equal(t, "Title", e.CleanedTitle)
	assert.Equal(t, []string{"a"}, e.Tags)
}

func TestParseResponse_SurroundingCommentary(t *testing.T) {
	content := `Sure! Here is the cleaned version you asked for:

{"cleaned_title": "DevOps Engineer", "cleaned_text": "AWS and Kubernetes.", "tags": ["devops"]}

Let me know if you need anything else.`

	e, ok := parseResponse(content, "orig", "orig")

	require.True(t, ok)
	assert.Equal(t, "DevOps Engineer", e.CleanedTitle)
}

func TestParseResponse_BracesInsideStrings(t *testing.T) {
	content := `{"cleaned_title": "C++ dev {urgent}", "cleaned_text": "Knows } and { well", "tags": ["cpp"]}`

	e, ok := parseResponse(content, "orig", "orig")

	require.True(t, ok)
	assert.Equal(t, "C++ dev {urgent}", e.CleanedTitle)
	assert.Equal(t, "Knows } and { well", e.CleanedText)
}

func TestParseResponse_NoJSON_FallsBackToOriginal(t *testing.T) {
	e, ok := parseResponse("I cannot help with that.", "Original Title", "Original body text")

	assert.False(t, ok)
	assert.Equal(t, "Original Title", e.CleanedTitle)
	assert.Equal(t, "Original body text", e.CleanedText)
	assert.Equal(t, []string{"parsing_failed"}, e.Tags)
}

func TestParseResponse_UnbalancedJSON_FallsBack(t *testing.T) {
	e, ok := parseResponse(`{"cleaned_title": "truncated...`, "Original Title", "body")

	assert.False(t, ok)
	assert.Equal(t, []string{"parsing_failed"}, e.Tags)
}

func TestParseResponse_PartialFields(t *testing.T) {
	content := `{"cleaned_title": "Only Title"}`

	e, ok := parseResponse(content, "Original Title", "Original body")

	require.True(t, ok)
	assert.Equal(t, "Only Title", e.CleanedTitle)
	assert.Equal(t, "Original body", e.CleanedText)
	assert.Equal(t, []string{"parsing_failed"}, e.Tags)
}

func TestParseResponse_WrongFieldTypes_FallBackPerField(t *testing.T) {
	content := `{"cleaned_title": 42, "cleaned_text": "Good text", "tags": "not-a-list"}`

	e, ok := parseResponse(content, "Original Title", "body")

	require.True(t, ok)
	assert.Equal(t, "Original Title", e.CleanedTitle)
	assert.Equal(t, "Good text", e.CleanedText)
	assert.Equal(t, []string{"parsing_failed"}, e.Tags)
}

func TestParseResponse_NullTags_KeepSentinel(t *testing.T) {
	content := `{"cleaned_title": "Title", "cleaned_text": "Text", "tags": null}`

	e, ok := parseResponse(content, "Original Title", "body")

	require.True(t, ok)
	assert.Equal(t, "Title", e.CleanedTitle)
	require.NotNil(t, e.Tags)
	assert.Equal(t, []string{"parsing_failed"}, e.Tags)
}

func TestParseResponse_EmptyTagList_Accepted(t *testing.T) {
	content := `{"cleaned_title": "Title", "cleaned_text": "Text", "tags": []}`

	e, ok := parseResponse(content, "Original Title", "body")

	require.True(t, ok)
	require.NotNil(t, e.Tags)
	assert.Empty(t, e.Tags)
}

func TestParseResponse_EmptyBodyPlaceholder(t *testing.T) {
	e, ok := parseResponse("no json here", "Title", "   ")

	assert.False(t, ok)
	assert.Equal(t, "No description provided", e.CleanedText)
}

func TestParseResponse_TruncatesLongFields(t *testing.T) {
	longTitle := strings.Repeat("x", 500)
	longBody := strings.Repeat("y", 5000)

	e, _ := parseResponse("no json", longTitle, longBody)

	assert.Len(t, e.CleanedTitle, 200)
	assert.Len(t, e.CleanedText, 1000)
}

func TestParseResponse_TruncationIsRuneSafe(t *testing.T) {
	longTitle := strings.Repeat("é", 300)

	e, _ := parseResponse("no json", longTitle, "body")

	assert.Equal(t, strings.Repeat("é", 200), e.CleanedTitle)
}

func TestParseResponse_CapsTags(t *testing.T) {
	content := `{"tags": ["t1","t2","t3","t4","t5","t6","t7","t8","t9","t10","t11","t12"]}`

	e, ok := parseResponse(content, "title", "body")

	require.True(t, ok)
	assert.Len(t, e.Tags, 10)
	assert.Equal(t, "t10", e.Tags[9])
}

func TestParseResponse_NestedObjectInValue(t *testing.T) {
	content := `{"cleaned_title": "Title", "meta": {"inner": "value"}, "tags": ["x"]}`

	e, ok := parseResponse(content, "orig", "orig")

	require.True(t, ok)
	assert.Equal(t, "Title", e.CleanedTitle)
	assert.Equal(t, []string{"x"}, e.Tags)
}

func TestFirstJSONObject_EscapedQuotes(t *testing.T) {
	s := `prefix {"k": "va\"l}ue"} suffix`

	obj, ok := firstJSONObject(s)

	require.True(t, ok)
	assert.Equal(t, `{"k": "va\"l}ue"}`, obj)
}

func TestFirstJSONObject_NoObject(t *testing.T) {
	_, ok := firstJSONObject("plain text without braces")
	assert.False(t, ok)
}
