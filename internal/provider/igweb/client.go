// Package igweb implements the provider client boundary over the provider's
// private web API. No maintained Go client library exists for this service,
// so the handle speaks HTTP directly: cookie-jar auth, JSON endpoints, and
// status-code mapping onto the domain error taxonomy.
package igweb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/provider"
	"github.com/mxbot/MXBot_Go/internal/urlrouter"
)

const (
	defaultBaseURL = "https://www.instagram.com"

	// Browser identity the web API expects on every call.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	webAppID  = "936619743392459"

	csrfCookieName = "csrftoken"
)

// shortcodeAlphabet is the base64-variant alphabet post shortcodes encode
// their numeric media id with.
const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Client is an HTTP handle onto the provider's web API. It satisfies
// provider.Client; the session manager serializes the mutating calls.
type Client struct {
	http     *http.Client
	baseURL  string
	username string

	// two-factor identifier handed out by a previous login attempt,
	// consumed by the follow-up call that carries the code.
	twoFactorID string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API origin. Used by tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithHTTPClient swaps the underlying HTTP client. The client's cookie jar
// is replaced; auth state lives in cookies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates an unauthenticated client handle.
func New(opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		http:    &http.Client{Jar: jar, Timeout: 60 * time.Second},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		c.http.Jar = jar
	}
	return c
}

// NewFactory returns a provider.Factory producing fresh handles with the
// given options. One handle per login/load, per the session manager contract.
func NewFactory(opts ...Option) provider.Factory {
	return func() provider.Client { return New(opts...) }
}

var _ provider.Client = (*Client)(nil)

type loginResponse struct {
	Authenticated     bool   `json:"authenticated"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	CheckpointURL     string `json:"checkpoint_url"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	TwoFactorInfo     struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
	} `json:"two_factor_info"`
}

// Login authenticates with username/password, or completes a pending
// two-factor challenge when twoFactorCode is set.
func (c *Client) Login(ctx context.Context, username, password, twoFactorCode string) (provider.LoginResult, error) {
	if err := c.primeCSRF(ctx); err != nil {
		return provider.LoginBadCredentials, err
	}

	form := url.Values{}
	endpoint := "/accounts/login/ajax/"
	if twoFactorCode != "" && c.twoFactorID != "" {
		endpoint = "/accounts/login/ajax/two_factor/"
		form.Set("username", username)
		form.Set("verification_code", twoFactorCode)
		form.Set("identifier", c.twoFactorID)
	} else {
		form.Set("username", username)
		form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))
	}

	resp, err := c.do(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return provider.LoginBadCredentials, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return provider.LoginRateLimited, nil
	}

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return provider.LoginBadCredentials, fmt.Errorf("malformed login response: %w", err)
	}

	switch {
	case body.Authenticated:
		c.username = username
		c.twoFactorID = ""
		return provider.LoginOK, nil
	case body.TwoFactorRequired:
		c.twoFactorID = body.TwoFactorInfo.TwoFactorIdentifier
		return provider.LoginTwoFactorRequired, nil
	case body.CheckpointURL != "":
		return provider.LoginChallengeRequired, nil
	case strings.Contains(body.Message, "rate"):
		return provider.LoginRateLimited, nil
	default:
		return provider.LoginBadCredentials, nil
	}
}

// credentialBlob is the persisted credential shape. authorization_data.ds_user
// carries the username so the blob-upload flow can key storage by account.
type credentialBlob struct {
	AuthorizationData struct {
		DsUser string `json:"ds_user"`
	} `json:"authorization_data"`
	Cookies []blobCookie `json:"cookies"`
}

type blobCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Path   string `json:"path,omitempty"`
	Domain string `json:"domain,omitempty"`
}

// LoadCredentials restores a previously dumped blob into the cookie jar.
func (c *Client) LoadCredentials(blob []byte) error {
	var data credentialBlob
	if err := json.Unmarshal(blob, &data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidBlob, err)
	}
	if len(data.Cookies) == 0 {
		return fmt.Errorf("%w: no cookies", domain.ErrInvalidBlob)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	cookies := make([]*http.Cookie, 0, len(data.Cookies))
	for _, ck := range data.Cookies {
		cookies = append(cookies, &http.Cookie{
			Name:  ck.Name,
			Value: ck.Value,
			Path:  ck.Path,
		})
	}
	c.http.Jar.SetCookies(base, cookies)
	c.username = data.AuthorizationData.DsUser
	return nil
}

// DumpCredentials serializes the cookie jar and username.
func (c *Client) DumpCredentials() ([]byte, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	var data credentialBlob
	data.AuthorizationData.DsUser = c.username
	for _, ck := range c.http.Jar.Cookies(base) {
		data.Cookies = append(data.Cookies, blobCookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Path:   ck.Path,
			Domain: ck.Domain,
		})
	}
	return json.Marshal(data)
}

// ProbeAuth issues a lightweight authenticated call.
func (c *Client) ProbeAuth(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/accounts/current_user/", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	drain(resp.Body)
	return statusError(resp.StatusCode)
}

// ResolvePostID decodes a post URL's shortcode into the numeric media id.
func (c *Client) ResolvePostID(_ context.Context, rawURL string) (string, error) {
	shortcode := urlrouter.ParseShortcode(rawURL)
	if shortcode == "" {
		return "", fmt.Errorf("%w: no shortcode in %s", domain.ErrMediaNotFound, rawURL)
	}
	// Story URLs carry the numeric media id directly.
	if isDigits(shortcode) {
		return shortcode, nil
	}
	// Shortcodes longer than 11 chars carry a private-account suffix after
	// the id portion.
	if len(shortcode) > 11 {
		shortcode = shortcode[:11]
	}

	id := new(big.Int)
	for _, r := range shortcode {
		idx := strings.IndexRune(shortcodeAlphabet, r)
		if idx < 0 {
			return "", fmt.Errorf("%w: bad shortcode %q", domain.ErrMediaNotFound, shortcode)
		}
		id.Mul(id, big.NewInt(64))
		id.Add(id, big.NewInt(int64(idx)))
	}
	return id.String(), nil
}

type mediaItem struct {
	MediaType int   `json:"media_type"`
	TakenAt   int64 `json:"taken_at"`
	Caption   struct {
		Text string `json:"text"`
	} `json:"caption"`
	User struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
	} `json:"user"`
	LikeCount     int         `json:"like_count"`
	CommentCount  int         `json:"comment_count"`
	CarouselMedia []mediaItem `json:"carousel_media"`
	ImageVersions struct {
		Candidates []struct {
			URL string `json:"url"`
		} `json:"candidates"`
	} `json:"image_versions2"`
	VideoVersions []struct {
		URL string `json:"url"`
	} `json:"video_versions"`
}

type mediaInfoResponse struct {
	Items []mediaItem `json:"items"`
}

const (
	mediaTypePhoto    = 1
	mediaTypeVideo    = 2
	mediaTypeCarousel = 8
)

// FetchPostInfo returns typed metadata for a post.
func (c *Client) FetchPostInfo(ctx context.Context, mediaID string) (*domain.MediaInfo, error) {
	item, err := c.fetchItem(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	kind := domain.MediaKindPhoto
	switch item.MediaType {
	case mediaTypeVideo:
		kind = domain.MediaKindVideo
	case mediaTypeCarousel:
		kind = domain.MediaKindCarousel
	}

	return &domain.MediaInfo{
		Kind:          kind,
		OwnerUsername: item.User.Username,
		OwnerFullName: item.User.FullName,
		Caption:       item.Caption.Text,
		LikeCount:     item.LikeCount,
		CommentCount:  item.CommentCount,
		TakenAt:       time.Unix(item.TakenAt, 0),
	}, nil
}

// DownloadPost downloads every item of a post into dir.
func (c *Client) DownloadPost(ctx context.Context, mediaID, dir string) ([]string, error) {
	item, err := c.fetchItem(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	items := []mediaItem{*item}
	if item.MediaType == mediaTypeCarousel {
		items = item.CarouselMedia
	}

	var paths []string
	for i, it := range items {
		src := itemURL(it)
		if src == "" {
			continue
		}
		dst := filepath.Join(dir, fmt.Sprintf("%s_%d%s", mediaID, i, urlExtension(src)))
		if err := c.downloadFile(ctx, src, dst); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: post %s has no downloadable items", domain.ErrMediaNotFound, mediaID)
	}
	return paths, nil
}

// ListInboxThreads returns recent threads from the regular inbox.
func (c *Client) ListInboxThreads(ctx context.Context, limit int) ([]provider.Thread, error) {
	return c.listThreads(ctx, "/api/v1/direct_v2/inbox/", limit)
}

// ListPendingInboxThreads returns threads from the pending queue.
func (c *Client) ListPendingInboxThreads(ctx context.Context, limit int) ([]provider.Thread, error) {
	return c.listThreads(ctx, "/api/v1/direct_v2/pending_inbox/", limit)
}

type threadItem struct {
	ItemID    string `json:"item_id"`
	UserID    int64  `json:"user_id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // microseconds
}

type threadResponse struct {
	Thread struct {
		Items []threadItem `json:"items"`
	} `json:"thread"`
}

// ListThreadMessages returns recent messages of a thread, newest first.
func (c *Client) ListThreadMessages(ctx context.Context, threadID string, limit int) ([]provider.Message, error) {
	endpoint := fmt.Sprintf("/api/v1/direct_v2/threads/%s/?limit=%d", url.PathEscape(threadID), limit)
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode); err != nil {
		drain(resp.Body)
		return nil, err
	}

	var body threadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed thread response: %w", err)
	}

	messages := make([]provider.Message, 0, len(body.Thread.Items))
	for _, it := range body.Thread.Items {
		messages = append(messages, provider.Message{
			ID:     it.ItemID,
			UserID: strconv.FormatInt(it.UserID, 10),
			Text:   it.Text,
			SentAt: time.UnixMicro(it.Timestamp),
		})
	}
	return messages, nil
}

// ApproveThread promotes a pending thread to the regular inbox.
func (c *Client) ApproveThread(ctx context.Context, threadID string) error {
	endpoint := fmt.Sprintf("/api/v1/direct_v2/threads/%s/approve/", url.PathEscape(threadID))
	resp, err := c.do(ctx, http.MethodPost, endpoint, nil, map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	drain(resp.Body)
	return statusError(resp.StatusCode)
}

type inboxResponse struct {
	Inbox struct {
		Threads []struct {
			ThreadID string `json:"thread_id"`
		} `json:"threads"`
	} `json:"inbox"`
}

func (c *Client) listThreads(ctx context.Context, endpoint string, limit int) ([]provider.Thread, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s?limit=%d", endpoint, limit), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode); err != nil {
		drain(resp.Body)
		return nil, err
	}

	var body inboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed inbox response: %w", err)
	}

	threads := make([]provider.Thread, 0, len(body.Inbox.Threads))
	for _, t := range body.Inbox.Threads {
		threads = append(threads, provider.Thread{ID: t.ThreadID})
	}
	return threads, nil
}

func (c *Client) fetchItem(ctx context.Context, mediaID string) (*mediaItem, error) {
	endpoint := fmt.Sprintf("/api/v1/media/%s/info/", url.PathEscape(mediaID))
	resp, err := c.do(ctx, http.MethodGet, endpoint, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := statusError(resp.StatusCode); err != nil {
		drain(resp.Body)
		return nil, err
	}

	var body mediaInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed media response: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, fmt.Errorf("%w: media %s", domain.ErrMediaNotFound, mediaID)
	}
	return &body.Items[0], nil
}

func (c *Client) downloadFile(ctx context.Context, src, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return fmt.Errorf("%w: status %d for %s", domain.ErrFetchFailed, resp.StatusCode, src)
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return f.Close()
}

// primeCSRF fetches the landing page so the jar holds a csrf cookie before
// the login POST.
func (c *Client) primeCSRF(ctx context.Context) error {
	if c.csrfToken() != "" {
		return nil
	}
	resp, err := c.do(ctx, http.MethodGet, "/", nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	drain(resp.Body)
	return nil
}

func (c *Client) csrfToken() string {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(base) {
		if ck.Name == csrfCookieName {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-IG-App-ID", webAppID)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if token := c.csrfToken(); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	return resp, nil
}

// statusError maps API status codes onto the domain error taxonomy.
func statusError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", domain.ErrAuthLost, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", domain.ErrRateLimited, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", domain.ErrMediaNotFound, code)
	default:
		return fmt.Errorf("provider returned status %d", code)
	}
}

func itemURL(it mediaItem) string {
	if len(it.VideoVersions) > 0 {
		return it.VideoVersions[0].URL
	}
	if len(it.ImageVersions.Candidates) > 0 {
		return it.ImageVersions.Candidates[0].URL
	}
	return ""
}

func urlExtension(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ".bin"
	}
	ext := path.Ext(u.Path)
	if ext == "" {
		return ".bin"
	}
	return ext
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
