// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/medsft/pkg/types"
)

const (
	articleElement = "PubmedArticle"
	fetchErrorRoot = "eFetchResult"
)

// ParseArticleSet stream-decodes an efetch PubmedArticleSet document and
// returns each PubmedArticle as a generic element tree. Other top-level
// entries (e.g. PubmedBookArticle) are skipped. An eFetchResult document
// carrying an ERROR element is reported as an error.
func ParseArticleSet(r io.Reader) ([]*types.RawRecord, error) {
	d := xml.NewDecoder(r)

	var records []*types.RawRecord
	depth := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 && t.Name.Local == fetchErrorRoot {
				node, err := decodeElement(d, t)
				if err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("efetch: %s", node.Lookup("unknown error", "ERROR"))
			}
			if depth == 1 && t.Name.Local == articleElement {
				node, err := decodeElement(d, t)
				if err != nil {
					return nil, fmt.Errorf("decoding %s %d: %w", articleElement, len(records)+1, err)
				}
				records = append(records, node)
				continue
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
}

// decodeElement reads the subtree opened by start, up to its matching end
// element, into a RawRecord.
func decodeElement(d *xml.Decoder, start xml.StartElement) (*types.RawRecord, error) {
	node := &types.RawRecord{Name: start.Name.Local}
	if len(start.Attr) > 0 {
		node.Attrs = make(map[string]string, len(start.Attr))
		for _, a := range start.Attr {
			node.Attrs[a.Name.Local] = a.Value
		}
	}

	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(d, t)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)
		case xml.CharData:
			s := string(t)
			text.WriteString(s)
			node.Children = append(node.Children, &types.RawRecord{Name: types.TextNode, Text: s})
		case xml.EndElement:
			node.Text = text.String()
			return node, nil
		}
	}
}
