package bw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginJSON = `{"id":"` + firstID + `","name":"qa admin","login":{"username":"admin","password":"s3cret","totp":"otpauth://x"}}`

func TestExtractIDs(t *testing.T) {
	assert.Equal(t, []string{firstID, secondID}, ExtractIDs(ambiguousMsg))
	assert.Equal(t, []string{secondID, firstID}, ExtractIDs("ids: "+secondID+", "+firstID))
	assert.Empty(t, ExtractIDs("More than one result was found."))
	assert.Empty(t, ExtractIDs("11111111-1111-1111-1111-11111111111"), "truncated id")
}

func TestItem(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.items["qa admin"] = loginJSON
	c := newTestClient(t, f, nil)

	item, err := c.Item(context.Background(), "qa admin", "tok")
	require.NoError(t, err)
	assert.Equal(t, firstID, item.ID)
	require.NotNil(t, item.Login)
	assert.Equal(t, "admin", item.Login.Username)
	assert.Equal(t, "s3cret", item.Login.Password)
	assert.Equal(t, []string{"get", "item", "qa admin", "--session", "tok"}, f.last("get").Args)
}

func TestItem_AmbiguousRetriesWithFirstID(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.fail("get item "+testEmail+" --session tok", toolErr("get item "+testEmail, ambiguousMsg))
	f.items[firstID] = loginJSON
	f.items[secondID] = `{"login":{"username":"other"}}`
	c := newTestClient(t, f, nil)

	item, err := c.Item(context.Background(), testEmail, "tok")
	require.NoError(t, err)
	assert.Equal(t, "admin", item.Login.Username)
	assert.Equal(t, []string{"get", "item", firstID, "--session", "tok"}, f.last("get").Args)
	assert.Equal(t, 2, f.count("get item"))
}

func TestItem_AmbiguousWithoutIDs(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.fail("get item dup --session tok", toolErr("get item dup", "More than one result was found."))
	c := newTestClient(t, f, nil)

	_, err := c.Item(context.Background(), "dup", "tok")
	require.ErrorIs(t, err, ErrAmbiguous)
	var te *ToolError
	assert.NotErrorAs(t, err, &te)
	assert.Equal(t, 1, f.count("get item"))
}

func TestItem_AmbiguousRetryErrorPropagates(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.fail("get item "+testEmail+" --session tok", toolErr("get item", ambiguousMsg))
	f.fail("get item "+firstID+" --session tok", toolErr("get item", "Unauthorized"))
	c := newTestClient(t, f, nil)

	_, err := c.Item(context.Background(), testEmail, "tok")
	require.Error(t, err)
	assert.True(t, IsKind(err, KindAuth))
}

func TestItem_Malformed(t *testing.T) {
	for _, out := range []string{"null", "null\n", "{not json"} {
		f := newFakeVault()
		f.valid["tok"] = true
		f.items["x"] = out
		c := newTestClient(t, f, nil)

		_, err := c.Item(context.Background(), "x", "tok")
		assert.ErrorIs(t, err, ErrMalformedResponse, "output %q", out)
	}
}

func TestItem_NotFound(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	c := newTestClient(t, f, nil)

	_, err := c.Item(context.Background(), "missing", "tok")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestTOTP(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.totps["qa admin"] = "123456\n"
	c := newTestClient(t, f, nil)

	code, err := c.TOTP(context.Background(), "qa admin", "tok")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)
}

func TestTOTP_AmbiguousRetriesWithFirstID(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.fail("get totp "+testEmail+" --session tok", toolErr("get totp", ambiguousMsg))
	f.totps[firstID] = "654321"
	c := newTestClient(t, f, nil)

	code, err := c.TOTP(context.Background(), testEmail, "tok")
	require.NoError(t, err)
	assert.Equal(t, "654321", code)
}

func TestTOTP_NotConfigured(t *testing.T) {
	f := newFakeVault()
	f.valid["tok"] = true
	f.fail("get totp plain --session tok", toolErr("get totp plain", "No TOTP available for this item."))
	c := newTestClient(t, f, nil)

	code, err := c.TOTP(context.Background(), "plain", "tok")
	require.NoError(t, err)
	assert.Empty(t, code)
}
