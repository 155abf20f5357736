package prompt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/suvo-labs/suvo/embed_data"
	"github.com/suvo-labs/suvo/logger"
	"github.com/suvo-labs/suvo/vfs"
)

var log = logger.Component("prompt")

var (
	queriesOnce sync.Once
	queries     map[string]*sitter.Query
	queriesErr  error
)

func loadQueries() (map[string]*sitter.Query, error) {
	queriesOnce.Do(func() {
		raw := make(map[string]string)
		if err := json.Unmarshal(embed_data.JavascriptQuery, &raw); err != nil {
			queriesErr = fmt.Errorf("failed to parse queries: %w", err)
			return
		}
		queries = make(map[string]*sitter.Query, len(raw))
		for tag, q := range raw {
			compiled, err := sitter.NewQuery([]byte(q), javascript.GetLanguage())
			if err != nil {
				queriesErr = fmt.Errorf("failed to compile query %s: %w", tag, err)
				return
			}
			queries[tag] = compiled
		}
	})
	return queries, queriesErr
}

// OutlineFile lists the named declarations of one JavaScript source as
// "tag: name" lines in source order.
func OutlineFile(source []byte) ([]string, error) {
	qs, err := loadQueries()
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	defer tree.Close()

	type element struct {
		offset uint32
		text   string
	}
	var elements []element

	for tag, query := range qs {
		cursor := sitter.NewQueryCursor()
		cursor.Exec(query, tree.RootNode())
		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			for _, c := range match.Captures {
				elements = append(elements, element{
					offset: c.Node.StartByte(),
					text:   fmt.Sprintf("%s: %s", tag, c.Node.Content(source)),
				})
			}
		}
		cursor.Close()
	}

	sort.Slice(elements, func(i, j int) bool { return elements[i].offset < elements[j].offset })
	out := make([]string, 0, len(elements))
	for _, e := range elements {
		out = append(out, e.text)
	}
	return out, nil
}

// Outline renders the outline of every JavaScript file in fs without caching.
func Outline(fs vfs.FileSystem) string {
	return NewOutlineCache().Outline(fs)
}
