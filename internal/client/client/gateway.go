package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/smartkraft/lebensspur/internal/client/notify"
	"github.com/smartkraft/lebensspur/internal/common"
	"github.com/smartkraft/lebensspur/internal/logging"
	"golang.org/x/net/publicsuffix"
)

// Credential is what the session owner lends the gateway for one call.
// Generation increases with every login and is 0 before the first one.
type Credential struct {
	Token         string
	Generation    uint64
	Authenticated bool
}

// Session is the capability the gateway needs from the session owner. It is
// registered at wiring time so the gateway never imports the session code.
type Session interface {
	Credential() Credential
	// InvalidateSession tears down the session if generation is still the
	// current one and reports whether a transition happened.
	InvalidateSession(ctx context.Context, generation uint64) bool
}

// Request describes one device call. Body, if not nil, is sent as JSON.
// Bearer overrides the session credential for calls that must carry a
// specific token (logout after teardown, token revalidation at startup);
// such calls never trigger a teardown.
type Request struct {
	Method string
	Path   string
	Body   any
	Bearer string
}

type Gateway struct {
	baseURL  *url.URL
	http     *http.Client
	jar      *sessionJar
	notifier notify.Notifier
	log      logging.Logger

	mu          sync.Mutex
	session     Session
	tornDownGen uint64
}

type GatewayOption func(*Gateway)

// WithHTTPClient uses a copy of c. Its jar is replaced by the gateway's own,
// which is emptied whenever the session ends.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) {
		cc := *c
		cc.Jar = g.jar
		g.http = &cc
	}
}

func WithNotifier(n notify.Notifier) GatewayOption {
	return func(g *Gateway) { g.notifier = n }
}

func WithLogger(l logging.Logger) GatewayOption {
	return func(g *Gateway) { g.log = l }
}

func NewGateway(baseURL string, opts ...GatewayOption) (*Gateway, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid device url %q", baseURL)
	}

	jar, err := newSessionJar()
	if err != nil {
		return nil, err
	}

	g := &Gateway{
		baseURL:  u,
		http:     &http.Client{Jar: jar},
		jar:      jar,
		notifier: notify.Discard,
		log:      logging.Discard(),
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// RegisterSession installs the session owner consulted on every call.
func (g *Gateway) RegisterSession(s Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = s
}

func (g *Gateway) credential() Credential {
	g.mu.Lock()
	s := g.session
	g.mu.Unlock()
	if s == nil {
		return Credential{}
	}
	return s.Credential()
}

// Call performs r and returns the raw response, which the caller must close.
//
// A transport failure is returned wrapped in ErrUnavailable and never affects
// the session. A 401 on a call made under an authenticated session closes the
// response, tears the session down once per generation and returns
// ErrSessionExpired.
func (g *Gateway) Call(ctx context.Context, r Request) (*http.Response, error) {
	cred := g.credential()

	req, err := g.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	scoped := r.Bearer != ""
	token := r.Bearer
	if !scoped && cred.Authenticated {
		token = cred.Token
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	if r.Path == PathLogout {
		// the device session ends with this call whatever it answers
		defer g.clearCookies(ctx)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && cred.Authenticated && !scoped {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		g.teardown(ctx, cred.Generation, r.Path)
		return nil, ErrSessionExpired
	}
	return resp, nil
}

func (g *Gateway) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", r.Path, err)
		}
		body = bytes.NewReader(b)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL.String()+r.Path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", r.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// teardown runs at most once per session generation no matter how many
// in-flight calls come back with 401.
func (g *Gateway) teardown(ctx context.Context, generation uint64, path string) {
	g.mu.Lock()
	if generation <= g.tornDownGen {
		g.mu.Unlock()
		return
	}
	g.tornDownGen = generation
	s := g.session
	g.mu.Unlock()

	if s == nil {
		return
	}
	if !s.InvalidateSession(context.WithoutCancel(ctx), generation) {
		return
	}
	g.clearCookies(ctx)

	g.log.Info(ctx, "session expired on device", "generation", generation, "path", path)
	g.notifier.Notify(notify.Warning("Session expired, please log in again"))
}

func (g *Gateway) clearCookies(ctx context.Context) {
	if err := g.jar.reset(); err != nil {
		g.log.Warn(ctx, "could not reset cookie jar", "error", err)
	}
}

// sessionJar is a cookie jar that can be emptied when a session ends.
type sessionJar struct {
	mu  sync.Mutex
	jar *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	j := &sessionJar{}
	if err := j.reset(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *sessionJar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

func (j *sessionJar) reset() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("cookie jar: %w", err)
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}
