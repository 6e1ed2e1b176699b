package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecipients(t *testing.T) {
	recipients := parseRecipients("http://a.example/hook=tok-a, http://b.example/hook=tok-b")
	require.Len(t, recipients, 2)
	assert.Equal(t, "http://a.example/hook", recipients[0].URL)
	assert.Equal(t, "tok-a", recipients[0].AuthToken)
	assert.Equal(t, "http://b.example/hook", recipients[1].URL)
	assert.Equal(t, "tok-b", recipients[1].AuthToken)
}

func TestParseRecipientsURLWithQueryString(t *testing.T) {
	recipients := parseRecipients("http://a.example/hook?env=prod&v=2=tok-a")
	require.Len(t, recipients, 1)
	assert.Equal(t, "http://a.example/hook?env=prod&v=2", recipients[0].URL)
	assert.Equal(t, "tok-a", recipients[0].AuthToken)
}

func TestParseRecipientsWithoutToken(t *testing.T) {
	recipients := parseRecipients("http://a.example/hook")
	require.Len(t, recipients, 1)
	assert.Equal(t, "http://a.example/hook", recipients[0].URL)
	assert.Empty(t, recipients[0].AuthToken)
}

func TestParseRecipientsEmpty(t *testing.T) {
	assert.Empty(t, parseRecipients(""))
	assert.Empty(t, parseRecipients(" , "))
}
