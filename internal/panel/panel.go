// Package panel runs the request/response channel of the structured snippet
// editing panel as JSON lines over a reader and a writer.
package panel

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/store"
)

const maxLineSize = 4 * 1024 * 1024

var ErrClosed = errors.New("panel is closed")

// Saver stores snippets submitted by the panel.
type Saver interface {
	SaveSnippet(ctx context.Context, path, origin string, s snippet.Snippet) (snippet.Snippet, error)
}

// LanguageLister builds the language picker items of the form.
type LanguageLister func(selected []string, showScope bool) []language.Item

type Config struct {
	Store     *store.Store
	Saver     Saver
	Languages LanguageLister
	Out       io.Writer
}

// Panel is one editing panel. Only one snippet is shown at a time; each Show
// starts a new session and messages of older sessions are refused.
type Panel struct {
	store     *store.Store
	saver     Saver
	languages LanguageLister

	mu      sync.Mutex
	out     *json.Encoder
	session string
	data    PostData
	closed  bool
}

func New(cfg Config) *Panel {
	encoder := json.NewEncoder(cfg.Out)
	encoder.SetEscapeHTML(false)
	languages := cfg.Languages
	if languages == nil {
		languages = func(selected []string, showScope bool) []language.Item {
			return language.List(language.Sources{}, selected, showScope)
		}
	}
	return &Panel{
		store:     cfg.Store,
		saver:     cfg.Saver,
		languages: languages,
		out:       encoder,
		closed:    true,
	}
}

// Session returns the id of the current session, or "" when closed.
func (p *Panel) Session() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ""
	}
	return p.session
}

// Show opens the panel on s inside g. origin is the current snippet name, or
// empty for a new snippet.
func (p *Panel) Show(g *snippet.Group, s snippet.Snippet, origin string) (PostData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = uuid.NewString()
	p.closed = false
	p.data = p.postData(g, s, origin)
	return p.data, p.post(TypeSnippet, p.data)
}

func (p *Panel) postData(g *snippet.Group, s snippet.Snippet, origin string) PostData {
	showScope := g.Kind.ExplicitScope()
	names := make([]string, 0, len(g.Snippets))
	for _, name := range g.Names() {
		if name != origin {
			names = append(names, name)
		}
	}
	return PostData{
		Snippet:   snippetData(g.FilePath, origin, s),
		Languages: p.languages(snippet.ScopeTokens(s.Scope), showScope),
		Names:     names,
		ShowScope: showScope,
	}
}

// Handle processes one message from the panel UI.
func (p *Panel) Handle(ctx context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.postError("closed", "", ErrClosed.Error())
	}
	if msg.Session != "" && msg.Session != p.session {
		return p.postError("session", "", fmt.Sprintf("unknown panel session %q", msg.Session))
	}

	switch msg.Type {
	case TypeGet:
		return p.post(TypeSnippet, p.data)
	case TypeSave:
		return p.save(ctx, msg.Data)
	default:
		return p.postError("validation", "type", fmt.Sprintf("unsupported message type %q", msg.Type))
	}
}

func (p *Panel) save(ctx context.Context, raw json.RawMessage) error {
	var data SnippetData
	if err := json.Unmarshal(raw, &data); err != nil {
		return p.postError("validation", "", fmt.Sprintf("invalid snippet: %v", err))
	}
	if data.FilePath == "" {
		data.FilePath = p.data.Snippet.FilePath
	}

	saved, err := p.saver.SaveSnippet(ctx, data.FilePath, data.Origin, data.Snippet())
	if err != nil {
		var verr *snippet.ValidationError
		field := ""
		if errors.As(err, &verr) {
			field = verr.Field
		}
		return p.postError(snippet.ErrorKind(err), field, err.Error())
	}

	if err := p.post(TypeSaved, SavedData{Name: saved.Name, FilePath: data.FilePath, Added: data.Origin == ""}); err != nil {
		return err
	}

	g, ok := p.store.ByPath(data.FilePath)
	if !ok {
		return nil
	}
	p.data = p.postData(g, saved, saved.Name)
	return p.post(TypeSnippet, p.data)
}

// CloseAll closes the panel; later messages are refused until the next Show.
func (p *Panel) CloseAll(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.post(TypeClosed, nil)
}

// Serve reads JSON lines from r until EOF or ctx is done.
func (p *Panel) Serve(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			slog.Debug("malformed panel message", slog.String("error", err.Error()))
			p.mu.Lock()
			err = p.postError("validation", "", fmt.Sprintf("malformed message: %v", err))
			p.mu.Unlock()
			if err != nil {
				return err
			}
			continue
		}
		if err := p.Handle(ctx, msg); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (p *Panel) post(kind string, data any) error {
	msg := struct {
		Type    string `json:"type"`
		Session string `json:"session,omitempty"`
		Data    any    `json:"data,omitempty"`
	}{Type: kind, Session: p.session, Data: data}
	if err := p.out.Encode(msg); err != nil {
		return fmt.Errorf("failed to post %s message: %w", kind, err)
	}
	return nil
}

func (p *Panel) postError(errKind, field, message string) error {
	return p.post(TypeError, ErrorData{Kind: errKind, Field: field, Message: message})
}
