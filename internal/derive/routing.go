package derive

import (
	"context"
	"fmt"

	"github.com/geoquality/surveyform/internal/survey"
)

// ConformanceApplies reports whether the conformance section is shown. Primary
// data skips it; products or an unset level keep it.
func ConformanceApplies(in Inputs) bool {
	return in.DataProcessingLevel != ProcessingPrimary
}

// SectionAvailable reports whether page may be filled in for these inputs.
func SectionAvailable(in Inputs, page survey.PageID) bool {
	return page != survey.PageSection4 || ConformanceApplies(in)
}

var pageOrder = []survey.PageID{
	survey.PageSection1,
	survey.PageSection2,
	survey.PageSection3,
	survey.PageSection4,
	survey.PageSection5,
}

// NextPage is the page the "next" button leads to, skipping unavailable pages.
func NextPage(in Inputs, page survey.PageID) (survey.PageID, bool) {
	return step(in, page, 1)
}

// PreviousPage is the page the "previous" button leads to.
func PreviousPage(in Inputs, page survey.PageID) (survey.PageID, bool) {
	return step(in, page, -1)
}

func step(in Inputs, page survey.PageID, dir int) (survey.PageID, bool) {
	idx := -1
	for i, p := range pageOrder {
		if p == page {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", false
	}
	for i := idx + dir; i >= 0 && i < len(pageOrder); i += dir {
		if SectionAvailable(in, pageOrder[i]) {
			return pageOrder[i], true
		}
	}
	return "", false
}

// Accuracy types offered on the conformance page.
const (
	AccuracyThematic     = "thematic"
	AccuracyAttribute    = "attribute"
	AccuracyModel        = "model"
	AccuracyPlausibility = "plausibility"
)

var accuracyPanels = map[string]string{
	AccuracyThematic:     "thematic-accuracy",
	AccuracyAttribute:    "attribute-accuracy",
	AccuracyModel:        "model-performance",
	AccuracyPlausibility: "data-plausibility",
}

// AccuracyPanel returns the id of the detail panel for an accuracy type.
func AccuracyPanel(accuracyType string) (string, bool) {
	p, ok := accuracyPanels[accuracyType]
	return p, ok
}

// DefaultAccuracyType is the accuracy type matching a data type, if any.
func DefaultAccuracyType(dataType string) (string, bool) {
	switch dataType {
	case DataTypeRemote:
		return AccuracyThematic, true
	case "gis":
		return AccuracyAttribute, true
	case "model-ml", "prediction":
		return AccuracyModel, true
	case "survey", DataTypeOther:
		return AccuracyPlausibility, true
	}
	return "", false
}

// SelectAccuracyType persists the chosen accuracy type and returns its panel id.
func SelectAccuracyType(ctx context.Context, store *survey.Store, accuracyType string) (string, error) {
	panel, ok := AccuracyPanel(accuracyType)
	if !ok {
		return "", fmt.Errorf("unknown accuracy type %q", accuracyType)
	}
	err := store.SaveSection(ctx, survey.Section4, survey.SubConformance, survey.Subsection{
		"accuracyType": survey.Text(accuracyType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save accuracy type: %w", err)
	}
	return panel, nil
}
