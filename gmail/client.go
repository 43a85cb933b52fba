package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	user = "me"

	// maxListPages bounds pagination so a runaway query cannot loop
	// forever. 10 pages at the default page size is ~1000 message ids,
	// far beyond what a personal unread window produces.
	maxListPages = 10
)

// ErrAuth marks failures establishing the authorized session: unreadable
// client secret, failed refresh, failed interactive exchange.
var ErrAuth = errors.New("gmail: authorization failed")

// ErrRequest marks failures of the Gmail API requests themselves.
var ErrRequest = errors.New("gmail: request failed")

// Options configures a Client.
type Options struct {
	// CredentialsFile is the OAuth client secret JSON.
	CredentialsFile string

	// Tokens persists the cached OAuth token. Required.
	Tokens TokenStore

	// Auth runs the interactive consent flow when no valid token is
	// stored. Required.
	Auth Authorizer

	// BodyLimit bounds the decoded body kept per message, in runes.
	// Zero means no bound.
	BodyLimit int

	Logger *zap.SugaredLogger
}

// Client is a read-only Gmail client for the unread window.
type Client struct {
	srv       *gmail.Service
	bodyLimit int
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewClient establishes an authorized Gmail session. A stored token is
// reused, refreshed via its refresh token when expired, and only when
// neither works does the interactive flow run. The resulting token is
// persisted back through Options.Tokens.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("gmail: Options.Tokens must be set")
	}
	if opts.Auth == nil {
		return nil, errors.New("gmail: Options.Auth must be set")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	b, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: reading client secret file: %v", ErrAuth, err)
	}
	oauthCfg, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing client secret file: %v", ErrAuth, err)
	}

	tok, err := resolveToken(ctx, oauthCfg, opts)
	if err != nil {
		return nil, err
	}
	if err := opts.Tokens.Save(tok); err != nil {
		opts.Logger.Warnw("could not persist oauth token", "error", err)
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("%w: creating gmail service: %v", ErrAuth, err)
	}
	return &Client{
		srv:       srv,
		bodyLimit: opts.BodyLimit,
		now:       time.Now,
		logger:    opts.Logger,
	}, nil
}

func resolveToken(ctx context.Context, cfg *oauth2.Config, opts Options) (*oauth2.Token, error) {
	tok, err := opts.Tokens.Load()
	if err == nil {
		if tok.Valid() {
			return tok, nil
		}
		// TokenSource refreshes an expired token through its refresh
		// token without user interaction.
		refreshed, err := cfg.TokenSource(ctx, tok).Token()
		if err == nil {
			return refreshed, nil
		}
		opts.Logger.Infow("token refresh failed, falling back to interactive authorization", "error", err)
	}

	tok, err = opts.Auth.Authorize(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return tok, nil
}

// GetUnreadMessages returns the unread messages received within the last
// days days, in the provider's listing order. days=0 means today only.
// Listing or per-message fetch failures abort the call; a body that will
// not decode degrades to empty and the batch continues.
func (c *Client) GetUnreadMessages(ctx context.Context, days int) ([]Message, error) {
	if days < 0 {
		return nil, fmt.Errorf("days must be non-negative, got %d", days)
	}
	query := buildQuery(c.now().UTC(), days)
	c.logger.Infow("listing unread messages", "query", query)

	ids, err := c.listMessageIDs(ctx, query)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(ids))
	for _, id := range ids {
		msg, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("%w: fetching message %s: %v", ErrRequest, id, err)
		}
		messages = append(messages, c.normalize(msg))
	}
	return messages, nil
}

func (c *Client) listMessageIDs(ctx context.Context, query string) ([]string, error) {
	var ids []string
	pageToken := ""
	for page := 0; page < maxListPages; page++ {
		call := c.srv.Users.Messages.List(user).Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: listing messages: %v", ErrRequest, err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		pageToken = resp.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
	c.logger.Warnw("stopped listing at page cap", "pages", maxListPages, "messages", len(ids))
	return ids, nil
}

// buildQuery matches unread messages within the trailing window. The
// bounds are whole UTC days, so days=0 still covers all of today.
func buildQuery(now time.Time, days int) string {
	after := now.AddDate(0, 0, -days)
	before := now.AddDate(0, 0, 1)
	return fmt.Sprintf("is:unread after:%s before:%s",
		after.Format("2006/01/02"), before.Format("2006/01/02"))
}

func (c *Client) normalize(msg *gmail.Message) Message {
	m := Message{ID: msg.Id}
	if msg.Payload == nil {
		return m
	}
	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			m.Subject = header.Value
		case "From":
			m.From = header.Value
		case "Date":
			m.Date = header.Value
		}
	}
	m.Body = truncate(c.decodeBody(extractBodyData(msg.Payload)), c.bodyLimit)
	return m
}

// extractBodyData finds the base64url payload of the first text/plain
// part, descending into multipart containers, with text/html as the
// fallback when no plain part exists.
func extractBodyData(payload *gmail.MessagePart) string {
	if data := findPart(payload, "text/plain"); data != "" {
		return data
	}
	return findPart(payload, "text/html")
}

func findPart(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return part.Body.Data
	}
	for _, p := range part.Parts {
		if data := findPart(p, mimeType); data != "" {
			return data
		}
	}
	return ""
}

// decodeBody decodes Gmail's base64url body data, tolerating both padded
// and unpadded forms. Undecodable data yields an empty body; a single
// bad message never aborts the batch.
func (c *Client) decodeBody(data string) string {
	if data == "" {
		return ""
	}
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(data)
	}
	if err != nil {
		c.logger.Warnw("could not decode message body", "error", err)
		return ""
	}
	return string(b)
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
