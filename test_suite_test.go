package restblog

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestSuite_StoreFirstMatch(t *testing.T) {
	ts := &TestSuite{
		Storage:  map[string]string{},
		RespBody: []byte(`<a href="/items/42">first</a><a href="/items/7">second</a>`),
	}

	require.NoError(t, ts.StoreFirstMatch(regexp.MustCompile(`href="(/items/\d+)"`), "group"))
	assert.Equal(t, "/items/42", ts.Storage["group"])

	require.NoError(t, ts.theFirstMatchIsStoredAs(`/items/\d+`, "whole"))
	assert.Equal(t, "/items/42", ts.Storage["whole"])
	assert.Equal(t, "/items/42/edit", ts.expand("{whole}/edit"))

	assert.Error(t, ts.theFirstMatchIsStoredAs(`/missing/\d+`, "none"))
	assert.Error(t, ts.theFirstMatchIsStoredAs(`(`, "bad"))
}
