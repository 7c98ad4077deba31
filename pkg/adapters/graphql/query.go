package graphql

import (
	"strings"

	"github.com/aretw0/homeview/pkg/domain"
)

// Build renders desc as a GraphQL document selecting the items of the collection.
//
//	{ cardsCollection { items { title image { url } } } }
func Build(desc domain.QueryDescriptor) string {
	var sb strings.Builder
	sb.WriteString("{ ")
	sb.WriteString(desc.Collection)
	sb.WriteString(" { items ")
	writeSelection(&sb, desc.Fields)
	sb.WriteString(" } }")
	return sb.String()
}

func writeSelection(sb *strings.Builder, fields []domain.Field) {
	sb.WriteString("{")
	for _, f := range fields {
		sb.WriteString(" ")
		sb.WriteString(f.Name)
		if len(f.Children) > 0 {
			sb.WriteString(" ")
			writeSelection(sb, f.Children)
		}
	}
	sb.WriteString(" }")
}
