package core

import (
	"strings"

	"github.com/beevik/etree"
)

func parseXMLDocument(payload string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(payload); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, ParseError(nil, "xml document has no root element")
	}
	return doc, nil
}

// findDescendants walks the subtree in document order and matches elements
// by local name, ignoring namespace prefixes.
func findDescendants(root *etree.Element, local string) []*etree.Element {
	if root == nil {
		return nil
	}
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Tag == local {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

func findDescendant(root *etree.Element, local string) *etree.Element {
	if root == nil {
		return nil
	}
	for _, child := range root.ChildElements() {
		if child.Tag == local {
			return child
		}
		if found := findDescendant(child, local); found != nil {
			return found
		}
	}
	return nil
}

func descendantText(root *etree.Element, local string) (string, bool) {
	el := findDescendant(root, local)
	if el == nil {
		return "", false
	}
	return strings.TrimSpace(textContent(el)), true
}

// textContent concatenates every character data node below el in document
// order, including text inside nested elements.
func textContent(el *etree.Element) string {
	if el == nil {
		return ""
	}
	var out strings.Builder
	var walk func(*etree.Element)
	walk = func(node *etree.Element) {
		for _, token := range node.Child {
			switch child := token.(type) {
			case *etree.CharData:
				out.WriteString(child.Data)
			case *etree.Element:
				walk(child)
			}
		}
	}
	walk(el)
	return out.String()
}
