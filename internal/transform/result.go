package transform

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"catalogai/internal/genapi"
	"catalogai/pkg/models"

	"github.com/google/uuid"
)

// TabularColumns is the fixed column order of the result CSV
var TabularColumns = []string{
	"product_name", "primary_keywords", "secondary_keywords", "include_pricing",
	"meta_title", "meta_description", "short_description", "description",
	"key_features", "how_to_use", "ingredients", "upc", "keywords",
	"pricing USD min", "pricing USD max", "pricing CAD min", "pricing CAD max",
}

// ToTabular converts generated products to the flat CSV form. Keyword lists
// join with ','; feature lists join with '|' so they survive next to
// comma-joined keywords inside one cell. Missing pricing entries render as
// empty cells, never zero, since a zero would read as an actual $0 price.
func ToTabular(products []genapi.GeneratedProduct) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(TabularColumns); err != nil {
		return nil, err
	}

	for _, p := range products {
		row := []string{
			p.ProductName,
			strings.Join(p.PrimaryKeywords, ","),
			strings.Join(p.SecondaryKeywords, ","),
			strconv.FormatBool(p.IncludePricing),
			p.MetaTitle,
			p.MetaDescription,
			p.ShortDescription,
			p.Description,
			strings.Join(p.KeyFeatures, "|"),
			strings.Join(p.HowToUse, "|"),
			strings.Join(p.Ingredients, "|"),
			p.UPC,
			strings.Join(p.Keywords, ","),
			pricingCell(p.Pricing, "USD", true),
			pricingCell(p.Pricing, "USD", false),
			pricingCell(p.Pricing, "CAD", true),
			pricingCell(p.Pricing, "CAD", false),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pricingCell(pricing map[string]genapi.PriceRange, currency string, min bool) string {
	pr, ok := pricing[currency]
	if !ok {
		return ""
	}
	var value *float64
	if min {
		value = pr.MinPrice
	} else {
		value = pr.MaxPrice
	}
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

// ToRecords converts generated products into per-product records. Each record
// carries its row position in the batch as source_batch_index, the surrogate
// stable key for re-runs (the service assigns no per-product id).
func ToRecords(products []genapi.GeneratedProduct, jobID *uuid.UUID) ([]models.GeneratedProductRecord, error) {
	generationType := models.GenerationTypeBatch
	if jobID == nil {
		generationType = models.GenerationTypeSingle
	}

	records := make([]models.GeneratedProductRecord, 0, len(products))
	for i := range products {
		fields, err := products[i].FieldMap()
		if err != nil {
			return nil, err
		}

		index := i
		record := models.GeneratedProductRecord{
			JobID:            jobID,
			GenerationType:   generationType,
			SourceBatchIndex: &index,
			Name:             products[i].ProductName,
		}
		if jobID == nil {
			record.SourceBatchIndex = nil
		}
		if err := record.SetFields(fields); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
