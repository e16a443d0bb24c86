package igweb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/provider"
)

func TestResolvePostID(t *testing.T) {
	c := New()

	t.Run("decodes shortcodes", func(t *testing.T) {
		tests := []struct {
			url string
			id  string
		}{
			{"https://www.instagram.com/p/B/", "1"},
			{"https://www.instagram.com/reel/Q/", "16"},
			{"https://www.instagram.com/p/BA/", "64"},
		}
		for _, tt := range tests {
			id, err := c.ResolvePostID(context.Background(), tt.url)
			require.NoError(t, err, tt.url)
			assert.Equal(t, tt.id, id)
		}
	})

	t.Run("passes story ids through", func(t *testing.T) {
		id, err := c.ResolvePostID(context.Background(), "https://instagram.com/stories/someone/31415926/")
		require.NoError(t, err)
		assert.Equal(t, "31415926", id)
	})

	t.Run("rejects URLs without a shortcode", func(t *testing.T) {
		_, err := c.ResolvePostID(context.Background(), "https://www.instagram.com/someone/")
		assert.ErrorIs(t, err, domain.ErrMediaNotFound)
	})
}

func TestLogin(t *testing.T) {
	t.Run("authenticated login dumps a loadable blob", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/":
				http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: "token123"})
			case "/accounts/login/ajax/":
				assert.Equal(t, "token123", r.Header.Get("X-CSRFToken"))
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "someone", r.PostFormValue("username"))
				assert.Contains(t, r.PostFormValue("enc_password"), "#PWD_INSTAGRAM_BROWSER:0:")
				http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "abc"})
				fmt.Fprint(w, `{"authenticated":true,"status":"ok"}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))
		defer srv.Close()

		c := New(WithBaseURL(srv.URL))
		result, err := c.Login(context.Background(), "someone", "hunter2", "")
		require.NoError(t, err)
		assert.Equal(t, provider.LoginOK, result)

		blob, err := c.DumpCredentials()
		require.NoError(t, err)
		assert.Contains(t, string(blob), `"ds_user":"someone"`)
		assert.Contains(t, string(blob), "sessionid")

		restored := New(WithBaseURL(srv.URL))
		require.NoError(t, restored.LoadCredentials(blob))
		assert.Equal(t, "someone", restored.username)
	})

	t.Run("two factor challenge keeps the identifier", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/":
				http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: "token123"})
			case "/accounts/login/ajax/":
				fmt.Fprint(w, `{"two_factor_required":true,"two_factor_info":{"two_factor_identifier":"id42"}}`)
			case "/accounts/login/ajax/two_factor/":
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "id42", r.PostFormValue("identifier"))
				assert.Equal(t, "123456", r.PostFormValue("verification_code"))
				fmt.Fprint(w, `{"authenticated":true}`)
			}
		}))
		defer srv.Close()

		c := New(WithBaseURL(srv.URL))

		first, err := c.Login(context.Background(), "someone", "hunter2", "")
		require.NoError(t, err)
		assert.Equal(t, provider.LoginTwoFactorRequired, first)

		second, err := c.Login(context.Background(), "someone", "hunter2", "123456")
		require.NoError(t, err)
		assert.Equal(t, provider.LoginOK, second)
	})

	t.Run("checkpoint maps to challenge", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				http.SetCookie(w, &http.Cookie{Name: csrfCookieName, Value: "t"})
				return
			}
			fmt.Fprint(w, `{"checkpoint_url":"/challenge/"}`)
		}))
		defer srv.Close()

		c := New(WithBaseURL(srv.URL))
		result, err := c.Login(context.Background(), "someone", "hunter2", "")
		require.NoError(t, err)
		assert.Equal(t, provider.LoginChallengeRequired, result)
	})
}

func TestLoadCredentialsRejectsGarbage(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.LoadCredentials([]byte("not json")), domain.ErrInvalidBlob)
	assert.ErrorIs(t, c.LoadCredentials([]byte(`{"authorization_data":{"ds_user":"x"}}`)), domain.ErrInvalidBlob)
}

func TestProbeAuth(t *testing.T) {
	t.Run("maps forbidden to auth lost", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		err := New(WithBaseURL(srv.URL)).ProbeAuth(context.Background())
		assert.ErrorIs(t, err, domain.ErrAuthLost)
	})

	t.Run("passes on ok", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"status":"ok"}`)
		}))
		defer srv.Close()

		assert.NoError(t, New(WithBaseURL(srv.URL)).ProbeAuth(context.Background()))
	})
}

func TestFetchPostInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/media/123/info/", r.URL.Path)
		fmt.Fprint(w, `{"items":[{
			"media_type":2,
			"taken_at":1700000000,
			"caption":{"text":"hello"},
			"user":{"username":"owner","full_name":"Own Er"},
			"like_count":12,
			"comment_count":3,
			"video_versions":[{"url":"https://cdn.example/v.mp4"}]
		}]}`)
	}))
	defer srv.Close()

	info, err := New(WithBaseURL(srv.URL)).FetchPostInfo(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, domain.MediaKindVideo, info.Kind)
	assert.Equal(t, "owner", info.OwnerUsername)
	assert.Equal(t, "hello", info.Caption)
	assert.Equal(t, 12, info.LikeCount)
	assert.Equal(t, time.Unix(1700000000, 0), info.TakenAt)
}

func TestFetchPostInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(WithBaseURL(srv.URL)).FetchPostInfo(context.Background(), "123")
	assert.ErrorIs(t, err, domain.ErrMediaNotFound)
}

func TestDownloadPost(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/media/42/info/":
			fmt.Fprintf(w, `{"items":[{
				"media_type":8,
				"carousel_media":[
					{"media_type":1,"image_versions2":{"candidates":[{"url":"%s/cdn/a.jpg"}]}},
					{"media_type":2,"video_versions":[{"url":"%s/cdn/b.mp4"}]}
				]
			}]}`, srv.URL, srv.URL)
		case "/cdn/a.jpg":
			w.Write([]byte("jpegbytes"))
		case "/cdn/b.mp4":
			w.Write([]byte("mp4bytes"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	paths, err := New(WithBaseURL(srv.URL)).DownloadPost(context.Background(), "42", dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(dir, "42_0.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "42_1.mp4"), paths[1])

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "mp4bytes", string(data))
}

func TestInboxAndThreads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/direct_v2/inbox/":
			fmt.Fprint(w, `{"inbox":{"threads":[{"thread_id":"t1"},{"thread_id":"t2"}]}}`)
		case "/api/v1/direct_v2/pending_inbox/":
			fmt.Fprint(w, `{"inbox":{"threads":[{"thread_id":"p1"}]}}`)
		case "/api/v1/direct_v2/threads/t1/":
			fmt.Fprint(w, `{"thread":{"items":[{"item_id":"m1","user_id":777,"text":"ABCD1234","timestamp":1700000000000000}]}}`)
		case "/api/v1/direct_v2/threads/p1/approve/":
			assert.Equal(t, http.MethodPost, r.Method)
			fmt.Fprint(w, `{"status":"ok"}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	ctx := context.Background()

	threads, err := c.ListInboxThreads(ctx, 20)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "t1", threads[0].ID)

	pending, err := c.ListPendingInboxThreads(ctx, 20)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	messages, err := c.ListThreadMessages(ctx, "t1", 50)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "777", messages[0].UserID)
	assert.Equal(t, "ABCD1234", messages[0].Text)
	assert.Equal(t, time.UnixMicro(1700000000000000), messages[0].SentAt)

	assert.NoError(t, c.ApproveThread(ctx, "p1"))
}

func TestStatusError(t *testing.T) {
	assert.NoError(t, statusError(200))
	assert.ErrorIs(t, statusError(401), domain.ErrAuthLost)
	assert.ErrorIs(t, statusError(403), domain.ErrAuthLost)
	assert.ErrorIs(t, statusError(404), domain.ErrMediaNotFound)
	assert.ErrorIs(t, statusError(429), domain.ErrRateLimited)
	assert.False(t, errors.Is(statusError(500), domain.ErrAuthLost))
}
