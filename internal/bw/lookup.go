package bw

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Item is the subset of a vault item the helper reads.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Login *Login `json:"login"`
}

// Login is the nested login object of an item.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
	TOTP     string `json:"totp"`
}

var idPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// ExtractIDs returns the item identifiers listed in an ambiguous-match error,
// in the order they appear.
func ExtractIDs(msg string) []string {
	var ids []string
	for _, m := range idPattern.FindAllString(msg, -1) {
		if _, err := uuid.Parse(m); err == nil {
			ids = append(ids, m)
		}
	}
	return ids
}

type queryKind string

const (
	queryItem queryKind = "item"
	queryTOTP queryKind = "totp"
)

// get runs `bw get <kind> <ref>`. When the tool reports several matches it
// retries once with the first listed identifier; errors from that retry are
// returned unchanged so the retry wrapper can classify them.
func (c *Client) get(ctx context.Context, kind queryKind, ref, token string) (string, error) {
	out, err := c.run(ctx, c.commandTimeout, nil, "", "get", string(kind), ref, "--session", token)
	if err == nil {
		return out, nil
	}
	if !IsKind(err, KindAmbiguous) {
		c.logger.Debug("lookup failed", "kind", kind, "ref", ref, "err", err)
		return "", err
	}

	var te *ToolError
	errors.As(err, &te)
	ids := ExtractIDs(te.Stderr)
	if len(ids) == 0 {
		c.logger.Warn("multiple matches but no identifiers in error", "kind", kind, "ref", ref)
		return "", fmt.Errorf("%w: %q", ErrAmbiguous, ref)
	}
	c.logger.Info("multiple matches, using first identifier", "kind", kind, "ref", ref, "id", ids[0], "matches", len(ids))
	return c.run(ctx, c.commandTimeout, nil, "", "get", string(kind), ids[0], "--session", token)
}

// Item fetches a vault item by name, email or identifier.
func (c *Client) Item(ctx context.Context, ref, token string) (*Item, error) {
	out, err := c.get(ctx, queryItem, ref, token)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace([]byte(out))
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: item %q: null", ErrMalformedResponse, ref)
	}
	var item Item
	if err := json.Unmarshal(trimmed, &item); err != nil {
		c.logger.Error("decoding item JSON failed", "ref", ref, "err", err)
		return nil, fmt.Errorf("%w: item %q: %v", ErrMalformedResponse, ref, err)
	}
	return &item, nil
}

// TOTP fetches the current one-time code for an item. It returns "" when the
// item has no one-time code configured.
func (c *Client) TOTP(ctx context.Context, ref, token string) (string, error) {
	out, err := c.get(ctx, queryTOTP, ref, token)
	if err != nil {
		if IsKind(err, KindNoTOTP) {
			c.logger.Info("item has no one-time code", "ref", ref)
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}
