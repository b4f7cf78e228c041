package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/steam-claimer/internal/entity"
	"github.com/user/steam-claimer/internal/repository"
)

// fakeDoc is the state of one page in fakePage.
type fakeDoc struct {
	title   string
	visible map[string]bool
	text    map[string]string
	options map[string][]string // select options by selector
}

func newDoc(title string) *fakeDoc {
	return &fakeDoc{title: title, visible: map[string]bool{}, text: map[string]string{}, options: map[string][]string{}}
}

func (d *fakeDoc) show(selector, text string) *fakeDoc {
	d.visible[selector] = true
	if text != "" {
		d.text[selector] = text
	}
	return d
}

// fakePage is a scriptable in-memory PageDriver.
type fakePage struct {
	current   string
	docs      map[string]*fakeDoc
	redirects map[string]string
	navErrs   map[string]error
	onClick   map[string]func(p *fakePage)

	navigations []string
	clicks      []string
	fills       map[string]string
	selects     map[string]string
	shots       int
	cookies     map[string]string
}

func newFakePage() *fakePage {
	return &fakePage{
		docs:      map[string]*fakeDoc{},
		redirects: map[string]string{},
		navErrs:   map[string]error{},
		onClick:   map[string]func(*fakePage){},
		fills:     map[string]string{},
		selects:   map[string]string{},
		cookies:   map[string]string{},
	}
}

func (p *fakePage) doc() *fakeDoc {
	if d, ok := p.docs[p.current]; ok {
		return d
	}
	return newDoc("")
}

func (p *fakePage) Navigate(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.navigations = append(p.navigations, url)
	if err, ok := p.navErrs[url]; ok {
		return "", fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	if to, ok := p.redirects[url]; ok {
		url = to
	}
	p.current = url
	return url, nil
}

func (p *fakePage) CurrentURL(ctx context.Context) (string, error) { return p.current, nil }

func (p *fakePage) Visible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return p.doc().visible[selector], nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if !p.doc().visible[selector] {
		return fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	if !p.doc().visible[selector] {
		return fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	p.clicks = append(p.clicks, selector)
	if hook, ok := p.onClick[selector]; ok {
		hook(p)
	}
	return nil
}

func (p *fakePage) Fill(ctx context.Context, selector, value string) error {
	p.fills[selector] = value
	return nil
}

func (p *fakePage) Select(ctx context.Context, selector, value string) error {
	if opts, ok := p.doc().options[selector]; ok {
		for _, o := range opts {
			if o == value {
				p.selects[selector] = value
				return nil
			}
		}
		return fmt.Errorf("no option %q in %s", value, selector)
	}
	p.selects[selector] = value
	return nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	t, ok := p.doc().text[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return t, nil
}

func (p *fakePage) Title(ctx context.Context) (string, error) { return p.doc().title, nil }

func (p *fakePage) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error { return nil }

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	p.shots++
	return []byte("png"), nil
}

func (p *fakePage) SetCookie(ctx context.Context, name, value, domain string) error {
	p.cookies[name] = value
	return nil
}

// productPage builds a store page with the given claim button state.
func productPage(title string) *fakeDoc {
	return newDoc(title+" on Steam").show(titleSelector, title)
}

type fakeFeed struct {
	flat      []entity.FlatFeedItem
	flatErr   error
	gw        []entity.GiveawayFeedItem
	gwErr     error
	flatCalls int
}

func (f *fakeFeed) FlatList(ctx context.Context) ([]entity.FlatFeedItem, error) {
	f.flatCalls++
	return f.flat, f.flatErr
}

func (f *fakeFeed) Giveaways(ctx context.Context) ([]entity.GiveawayFeedItem, error) {
	return f.gw, f.gwErr
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Send(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

type memStore struct {
	doc     entity.LedgerDocument
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load(ctx context.Context) (entity.LedgerDocument, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.doc == nil {
		return entity.LedgerDocument{}, nil
	}
	return s.doc, nil
}

func (s *memStore) Save(ctx context.Context, doc entity.LedgerDocument) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.doc = doc
	return nil
}

type memExporter struct {
	exports map[string]map[string]entity.LedgerEntry
}

func (e *memExporter) Export(ctx context.Context, user string, entries map[string]entity.LedgerEntry) error {
	if e.exports == nil {
		e.exports = map[string]map[string]entity.LedgerEntry{}
	}
	e.exports[user] = entries
	return nil
}

type memShots struct {
	saved map[string]bool
}

func (s *memShots) Exists(id string) bool { return s.saved[id] }

func (s *memShots) Save(id string, png []byte) error {
	if s.saved == nil {
		s.saved = map[string]bool{}
	}
	s.saved[id] = true
	return nil
}

type staticCreds struct {
	user, pass string
}

func (c staticCreds) Username(ctx context.Context) (string, error) { return c.user, nil }
func (c staticCreds) Password(ctx context.Context) (string, error) { return c.pass, nil }

type staticAuth struct {
	user string
	err  error
}

func (a staticAuth) EnsureLoggedIn(ctx context.Context) (string, error) { return a.user, a.err }

var errBoom = errors.New("boom\nsecond line")
