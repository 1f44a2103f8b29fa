package ingestion

import (
	"fmt"

	"github.com/poiesic/docvec/chunk"
	"github.com/poiesic/docvec/classify"
	"github.com/poiesic/docvec/core"
	"github.com/poiesic/docvec/extract"
	"github.com/poiesic/docvec/index"
	"github.com/poiesic/docvec/source"
)

// Metadata keys written alongside index.FieldText and index.FieldDocType.
const (
	metaSource      = "source"
	metaType        = "type"
	metaCategory    = "category"
	metaPage        = "page"
	metaIsPromotion = "is_promotion"
	metaBusinessID  = "business_id"
	metaTitle       = "title"
)

// recordBuilder converts an extracted document into unembedded records.
type recordBuilder struct {
	sizer      chunk.Sizer
	classifier *classify.Classifier
}

// build returns the document type inferred for src and its records. JSON
// documents have no document type.
func (b recordBuilder) build(src source.Source, namespace string, doc *extract.Document) (core.DocType, []*core.Record) {
	switch doc.Kind {
	case core.KindJSON:
		return "", b.jsonRecords(src, doc.Items)
	case core.KindPDF:
		docType := b.classifier.Infer(src.Name)
		return docType, b.pdfRecords(src, namespace, docType, doc.Pages)
	default:
		docType := b.classifier.Infer(src.Name)
		return docType, b.textRecords(src, namespace, docType, doc.Text)
	}
}

func (b recordBuilder) jsonRecords(src source.Source, items []extract.Item) []*core.Record {
	records := make([]*core.Record, 0, len(items))
	for _, it := range items {
		text := it.Content()
		meta := map[string]any{
			metaSource:      src.Path,
			index.FieldText: text,
		}
		if it.IsQA {
			meta[metaType] = core.RecordTypeQA
			meta[metaCategory] = it.Category
		} else {
			meta[metaType] = core.RecordTypeJSON
		}
		records = append(records, &core.Record{
			ID:       fmt.Sprintf("%s-json-%d", src.Name, it.Index),
			Text:     text,
			Metadata: meta,
		})
	}
	return records
}

func (b recordBuilder) pdfRecords(src source.Source, namespace string, docType core.DocType, pages []extract.Page) []*core.Record {
	plan := b.sizer.PlanFor(docType)
	var records []*core.Record
	for _, page := range pages {
		for i, text := range plan.Split(page.Text) {
			meta := b.commonMetadata(src, namespace, docType, text)
			meta[metaSource] = fmt.Sprintf("%s#page=%d", src.Path, page.Number)
			meta[metaPage] = page.Number
			records = append(records, &core.Record{
				ID:       fmt.Sprintf("%s%s-p%d-%d", index.IDPrefix(docType), src.Name, page.Number, i),
				Text:     text,
				Metadata: meta,
			})
		}
	}
	return records
}

func (b recordBuilder) textRecords(src source.Source, namespace string, docType core.DocType, body string) []*core.Record {
	plan := b.sizer.PlanFor(docType)
	var records []*core.Record
	for i, text := range plan.Split(body) {
		meta := b.commonMetadata(src, namespace, docType, text)
		meta[index.FieldNamespace] = namespace
		records = append(records, &core.Record{
			ID:       fmt.Sprintf("%s%s-%d", index.IDPrefix(docType), src.Name, i),
			Text:     text,
			Metadata: meta,
		})
	}
	return records
}

func (b recordBuilder) commonMetadata(src source.Source, namespace string, docType core.DocType, text string) map[string]any {
	return map[string]any{
		metaSource:         src.Path,
		index.FieldText:    text,
		index.FieldDocType: string(docType),
		metaIsPromotion:    docType == core.DocTypePromotions,
		metaBusinessID:     namespace,
		metaTitle:          core.Title(src.Name),
	}
}
