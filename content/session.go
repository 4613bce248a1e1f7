// Package content walks loaded campaign tree in a format independent way:
// topic ordering, linkage resolution, snippet dispatch and paragraph
// recursion. Output formats receive content through Sink.
package content

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"rwout/rw"
	"rwout/utils/images"
)

// Session keeps everything a single render call needs. Sessions are never
// shared between calls and are not safe for concurrent use.
type Session struct {
	tree     *rw.Tree
	opts     Options
	log      *zap.Logger
	collator *Collator

	front  *FrontPage
	assets map[string]*images.Adapted
}

// NewSession validates tree structure and builds ordered topic index.
func NewSession(tree *rw.Tree, opts Options, log *zap.Logger) (*Session, error) {
	if tree == nil || tree.Root == nil {
		return nil, &rw.StructuralError{Path: "/", Msg: "empty tree"}
	}
	if tree.Definition() == nil {
		return nil, &rw.StructuralError{Path: tree.Root.Tag, Msg: "definition is missing"}
	}
	details := tree.Details()
	if details == nil {
		return nil, &rw.StructuralError{Path: tree.Root.Tag + "/definition", Msg: "details are missing"}
	}
	if tree.Contents() == nil {
		return nil, &rw.StructuralError{Path: tree.Root.Tag, Msg: "contents are missing"}
	}

	s := &Session{
		tree:     tree,
		opts:     opts,
		log:      log,
		collator: NewCollator(opts.Language),
		assets:   make(map[string]*images.Adapted),
	}

	fp := &FrontPage{
		Title:      details.Attr("name"),
		ExportDate: firstNonEmpty(details.Attr("export_date"), tree.Root.Attr("export_date")),
		byID:       make(map[string]*Topic),
	}
	if opts.Now != nil {
		fp.Generated = opts.Now()
	}
	roots, err := s.buildTopics(fp, tree.Contents(), nil, 0)
	if err != nil {
		return nil, err
	}
	fp.Roots = roots
	s.front = fp
	return s, nil
}

// FrontPage returns campaign metadata and topic index.
func (s *Session) FrontPage() *FrontPage {
	return s.front
}

// Options returns options of the session.
func (s *Session) Options() Options {
	return s.opts
}

// Logger returns session logger.
func (s *Session) Logger() *zap.Logger {
	return s.log
}

// Collator returns topic ordering used by the session.
func (s *Session) Collator() *Collator {
	return s.collator
}

func (s *Session) buildTopics(fp *FrontPage, parent *rw.Node, pt *Topic, depth int) ([]*Topic, error) {
	nodes := parent.ChildrenOf(rw.KindTopic)
	if len(nodes) == 0 {
		return nil, nil
	}
	if depth >= rw.MaxDepth {
		return nil, &rw.StructuralError{Path: topicPath(pt), Msg: fmt.Sprintf("topic nesting exceeds %d levels", rw.MaxDepth)}
	}
	s.collator.Sort(nodes)

	res := make([]*Topic, 0, len(nodes))
	for _, n := range nodes {
		t := &Topic{
			ID:       n.Attr("topic_id"),
			Name:     n.Attr("public_name"),
			Prefix:   n.Attr("prefix"),
			Suffix:   n.Attr("suffix"),
			Category: n.Attr("category_name"),
			Depth:    depth,
			Parent:   pt,
			Node:     n,
		}
		fp.All = append(fp.All, t)
		t.Seq = len(fp.All)
		if t.ID == "" {
			t.ID = fmt.Sprintf("topic-%05d", t.Seq)
			s.log.Debug("Topic without id, generating", zap.String("topic", t.Name), zap.String("id", t.ID))
		}
		if _, exists := fp.byID[t.ID]; exists {
			s.log.Warn("Duplicate topic id, links will point to the first one", zap.String("id", t.ID), zap.String("topic", t.Name))
		} else {
			fp.byID[t.ID] = t
		}

		children, err := s.buildTopics(fp, n, t, depth+1)
		if err != nil {
			return nil, err
		}
		t.Children = children
		res = append(res, t)
	}
	return res, nil
}

func topicPath(t *Topic) string {
	if t == nil {
		return "contents"
	}
	return topicPath(t.Parent) + "/" + t.ID
}

// Render sends front page and every topic in order to the sink. Context is
// checked between topics.
func (s *Session) Render(ctx context.Context, sink Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fp := s.front
	if err := sink.BeginFrontPage(fp); err != nil {
		return err
	}
	r := s.newRenderer(sink, nil)
	r.frontPage(fp)
	if r.err != nil {
		return r.err
	}
	if err := sink.EndFrontPage(fp); err != nil {
		return err
	}

	for i, t := range fp.Roots {
		if err := s.renderTopic(ctx, sink, t); err != nil {
			return err
		}
		if s.opts.Progress != nil {
			s.opts.Progress(i+1, len(fp.Roots))
		}
	}
	return nil
}

func (s *Session) renderTopic(ctx context.Context, sink Sink, t *Topic) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sink.BeginTopic(t); err != nil {
		return err
	}

	r := s.newRenderer(sink, BuildLinkTable(t.Node))
	r.topic(t)
	if r.err != nil {
		return r.err
	}

	if err := sink.EndTopic(t); err != nil {
		return err
	}
	for _, c := range t.Children {
		if err := s.renderTopic(ctx, sink, c); err != nil {
			return err
		}
	}
	return nil
}

// adapt runs asset pipeline once per distinct source within the session.
func (s *Session) adapt(data []byte, name string, mask []byte) (*images.Adapted, error) {
	key := images.AssetKey(data, mask)
	if a, ok := s.assets[key]; ok {
		return a, nil
	}
	a, err := images.Adapt(data, name, mask, images.Options{MaxWidth: s.opts.MaxImageWidth, JPEGQuality: s.opts.JPEGQuality}, s.log)
	if err != nil {
		return nil, err
	}
	s.assets[key] = a
	return a, nil
}

// Render is a convenience wrapper creating session for a single call.
func Render(ctx context.Context, tree *rw.Tree, sink Sink, opts Options, log *zap.Logger) error {
	s, err := NewSession(tree, opts, log)
	if err != nil {
		return err
	}
	return s.Render(ctx, sink)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
